package polymarket

import "encoding/json"

// DTOs raw de la API de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// gammaMarketsResponse es la respuesta de GET /markets de Gamma.
type gammaMarketsResponse []gammaMarket

// gammaMarket es un mercado binario de Gamma.
// Gamma devuelve varios campos numéricos como strings JSON, usamos json.Number;
// outcomePrices llega como un string con un array JSON dentro.
type gammaMarket struct {
	ConditionID   string      `json:"conditionId"`
	Question      string      `json:"question"`
	Slug          string      `json:"slug"`
	Outcomes      string      `json:"outcomes"`
	OutcomePrices string      `json:"outcomePrices"`
	ClobTokenIDs  string      `json:"clobTokenIds"`
	BestBid       json.Number `json:"bestBid"`
	BestAsk       json.Number `json:"bestAsk"`
	Liquidity     json.Number `json:"liquidityNum"`
	Volume24h     json.Number `json:"volume24hr"`
	EndDateISO    string      `json:"endDateIso"`
	Active        bool        `json:"active"`
	Closed        bool        `json:"closed"`
}

// --- CLOB API ---

// orderBookRequest es el body del POST /books batch.
type orderBookRequest struct {
	TokenID string `json:"token_id"`
}

// orderBookResponse es la respuesta de un item en POST /books.
type orderBookResponse struct {
	AssetID string         `json:"asset_id"`
	Bids    []bookEntryRaw `json:"bids"`
	Asks    []bookEntryRaw `json:"asks"`
}

// bookEntryRaw es un nivel de precio raw de la API (strings para mayor precisión).
type bookEntryRaw struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}
