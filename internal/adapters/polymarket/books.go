package polymarket

// books.go — batch fetch del CLOB para mercados cuyo row de Gamma llega sin
// bid/ask o sin liquidez. Un goroutine por batch; el rate limiter (token
// bucket) en doWithRetry controla el ritmo automáticamente, sin semáforo.

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
)

const (
	booksPath  = "/books"
	batchSize  = 20 // máx token_ids por request a /books
	depthLevel = 5  // niveles por lado que cuentan como "cerca del top"
)

// bookTop es el resumen top-of-book que necesita el feed: mejor bid/ask y
// la profundidad en USDC de los primeros niveles.
type bookTop struct {
	BestBid   float64
	BestAsk   float64
	DepthUSDC float64
}

// FetchBookTops obtiene el top-of-book para los token_ids dados usando el
// endpoint batch de /books.
func (c *Client) FetchBookTops(ctx context.Context, tokenIDs []string) (map[string]bookTop, error) {
	if len(tokenIDs) == 0 {
		return map[string]bookTop{}, nil
	}

	batches := splitBatches(tokenIDs, batchSize)

	type batchResult struct {
		tops map[string]bookTop
		err  error
		idx  int
	}

	resultCh := make(chan batchResult, len(batches))
	var wg sync.WaitGroup

	for i, batch := range batches {
		i, batch := i, batch
		wg.Add(1)
		go func() {
			defer wg.Done()
			tops, err := c.fetchBooksBatch(ctx, batch)
			resultCh <- batchResult{tops: tops, err: err, idx: i}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	result := make(map[string]bookTop, len(tokenIDs))
	var firstErr error
	for r := range resultCh {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("polymarket.FetchBookTops batch %d: %w", r.idx, r.err)
			}
			continue
		}
		for k, v := range r.tops {
			result[k] = v
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	slog.Debug("order books fetched", "tokens", len(tokenIDs), "books", len(result))
	return result, nil
}

// fetchBooksBatch hace un POST /books para un batch de token_ids.
func (c *Client) fetchBooksBatch(ctx context.Context, tokenIDs []string) (map[string]bookTop, error) {
	body := make([]orderBookRequest, len(tokenIDs))
	for i, id := range tokenIDs {
		body[i] = orderBookRequest{TokenID: id}
	}

	var resp []orderBookResponse
	if err := c.post(ctx, c.booksLimiter, c.clobBase+booksPath, body, &resp); err != nil {
		return nil, fmt.Errorf("POST /books: %w", err)
	}

	tops := make(map[string]bookTop, len(resp))
	for _, r := range resp {
		tops[r.AssetID] = summarizeBook(r)
	}
	return tops, nil
}

// summarizeBook reduce un book raw a bookTop. La API no garantiza orden en
// los niveles, así que se ordenan antes de cortar.
func summarizeBook(r orderBookResponse) bookTop {
	bids := parseLevels(r.Bids)
	asks := parseLevels(r.Asks)
	sort.Slice(bids, func(i, j int) bool { return bids[i].price > bids[j].price })
	sort.Slice(asks, func(i, j int) bool { return asks[i].price < asks[j].price })

	var top bookTop
	if len(bids) > 0 {
		top.BestBid = bids[0].price
	}
	if len(asks) > 0 {
		top.BestAsk = asks[0].price
	}
	for i, lvl := range bids {
		if i >= depthLevel {
			break
		}
		top.DepthUSDC += lvl.price * lvl.size
	}
	for i, lvl := range asks {
		if i >= depthLevel {
			break
		}
		top.DepthUSDC += lvl.price * lvl.size
	}
	return top
}

type bookLevel struct {
	price float64
	size  float64
}

func parseLevels(raw []bookEntryRaw) []bookLevel {
	levels := make([]bookLevel, 0, len(raw))
	for _, r := range raw {
		price, _ := strconv.ParseFloat(r.Price, 64)
		size, _ := strconv.ParseFloat(r.Size, 64)
		if price <= 0 || size <= 0 {
			continue
		}
		levels = append(levels, bookLevel{price: price, size: size})
	}
	return levels
}

// splitBatches divide tokenIDs en slices de tamaño máximo size.
func splitBatches(tokenIDs []string, size int) [][]string {
	if size <= 0 {
		size = batchSize
	}
	batches := make([][]string, 0, (len(tokenIDs)+size-1)/size)
	for i := 0; i < len(tokenIDs); i += size {
		end := i + size
		if end > len(tokenIDs) {
			end = len(tokenIDs)
		}
		batches = append(batches, tokenIDs[i:end])
	}
	return batches
}
