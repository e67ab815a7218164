package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

const (
	gammaMarketsPath = "/markets"
	gammaPageSize    = 100
)

// Feed implementa ports.MarketFeed sobre la API Gamma de Polymarket.
// Pagina /markets ordenado por volumen y descarta todo lo que no sea un
// binario operable.
type Feed struct {
	client     *Client
	maxMarkets int
	sportsOnly bool
}

// NewFeed crea el feed de mercados.
func NewFeed(client *Client, maxMarkets int, sportsOnly bool) *Feed {
	if maxMarkets <= 0 {
		maxMarkets = 300
	}
	return &Feed{client: client, maxMarkets: maxMarkets, sportsOnly: sportsOnly}
}

// FetchSnapshots obtiene la foto actual de los mercados activos. Los rows de
// Gamma que llegan sin book se completan contra el CLOB en un segundo paso.
func (f *Feed) FetchSnapshots(ctx context.Context) ([]domain.MarketSnapshot, error) {
	now := time.Now()
	snaps := make([]domain.MarketSnapshot, 0, f.maxMarkets)
	thin := make(map[string]int) // yes token id → índice en snaps
	dropped := 0

	for offset := 0; len(snaps) < f.maxMarkets; offset += gammaPageSize {
		page, err := f.fetchPage(ctx, offset)
		if err != nil {
			if len(snaps) > 0 {
				// Una página caída no invalida lo ya descargado.
				slog.Warn("gamma page failed, using partial scan", "offset", offset, "error", err)
				break
			}
			return nil, fmt.Errorf("polymarket.FetchSnapshots: %w", err)
		}
		if len(page) == 0 {
			break
		}

		for _, gm := range page {
			snap, ok := mapGammaMarket(gm, now)
			if !ok {
				dropped++
				continue
			}
			if f.sportsOnly && snap.Sport == "" {
				continue
			}
			if snap.BestBid == 0 || snap.BestAsk == 0 || snap.Liquidity == 0 {
				if token := yesTokenID(gm.ClobTokenIDs); token != "" {
					thin[token] = len(snaps)
				}
			}
			snaps = append(snaps, snap)
			if len(snaps) >= f.maxMarkets {
				break
			}
		}

		if len(page) < gammaPageSize {
			break
		}
	}

	f.backfillBooks(ctx, snaps, thin)

	slog.Debug("market scan fetched",
		"markets", len(snaps),
		"dropped", dropped,
		"backfilled", len(thin),
	)
	return snaps, nil
}

// backfillBooks completa bid/ask y liquidez desde el CLOB para los snapshots
// que Gamma devolvió sin book. Un fallo aquí no tumba el ciclo.
func (f *Feed) backfillBooks(ctx context.Context, snaps []domain.MarketSnapshot, thin map[string]int) {
	if len(thin) == 0 {
		return
	}
	tokens := make([]string, 0, len(thin))
	for token := range thin {
		tokens = append(tokens, token)
	}

	tops, err := f.client.FetchBookTops(ctx, tokens)
	if err != nil {
		slog.Warn("book backfill failed, keeping gamma data", "tokens", len(tokens), "error", err)
		return
	}
	for token, i := range thin {
		top, ok := tops[token]
		if !ok {
			continue
		}
		if snaps[i].BestBid == 0 {
			snaps[i].BestBid = top.BestBid
		}
		if snaps[i].BestAsk == 0 {
			snaps[i].BestAsk = top.BestAsk
		}
		if snaps[i].Liquidity == 0 {
			snaps[i].Liquidity = top.DepthUSDC
		}
	}
}

func (f *Feed) fetchPage(ctx context.Context, offset int) (gammaMarketsResponse, error) {
	q := url.Values{}
	q.Set("active", "true")
	q.Set("closed", "false")
	q.Set("order", "volume24hr")
	q.Set("ascending", "false")
	q.Set("limit", strconv.Itoa(gammaPageSize))
	q.Set("offset", strconv.Itoa(offset))

	var page gammaMarketsResponse
	if err := f.client.get(ctx, f.client.gammaLimiter, f.client.gammaBase+gammaMarketsPath+"?"+q.Encode(), &page); err != nil {
		return nil, err
	}
	return page, nil
}
