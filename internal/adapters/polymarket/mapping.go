package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

// mapGammaMarket convierte un DTO de Gamma en un snapshot de dominio.
// Devuelve false si el mercado no es un binario operable.
func mapGammaMarket(gm gammaMarket, now time.Time) (domain.MarketSnapshot, bool) {
	if gm.Closed || !gm.Active || gm.ConditionID == "" {
		return domain.MarketSnapshot{}, false
	}

	yes, no, ok := parseOutcomePrices(gm.OutcomePrices)
	if !ok {
		return domain.MarketSnapshot{}, false
	}

	snap := domain.MarketSnapshot{
		MarketID:  gm.ConditionID,
		Question:  gm.Question,
		Sport:     classifySport(gm.Question, gm.Slug),
		YesPrice:  yes,
		NoPrice:   no,
		Timestamp: now,
	}
	if v, err := gm.BestBid.Float64(); err == nil {
		snap.BestBid = v
	}
	if v, err := gm.BestAsk.Float64(); err == nil {
		snap.BestAsk = v
	}
	if v, err := gm.Liquidity.Float64(); err == nil {
		snap.Liquidity = v
	}

	if !snap.Valid() {
		return domain.MarketSnapshot{}, false
	}
	return snap, true
}

// parseOutcomePrices decodifica el string `["0.52", "0.48"]` que devuelve Gamma.
func parseOutcomePrices(raw string) (yes, no float64, ok bool) {
	if raw == "" {
		return 0, 0, false
	}
	var prices []string
	if err := json.Unmarshal([]byte(raw), &prices); err != nil || len(prices) < 2 {
		return 0, 0, false
	}
	yes, err1 := strconv.ParseFloat(prices[0], 64)
	no, err2 := strconv.ParseFloat(prices[1], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return yes, no, true
}

// yesTokenID extrae el token id del outcome YES del string
// `["123...", "456..."]` que devuelve Gamma. Devuelve "" si no hay tokens.
func yesTokenID(raw string) string {
	if raw == "" {
		return ""
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil || len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// sportMarkers mapea palabras clave de question/slug a deportes soportados.
var sportMarkers = []struct {
	sport   string
	markers []string
}{
	{"nba", []string{"nba", "lakers", "celtics", "warriors", "basketball"}},
	{"cricket", []string{"cricket", "ipl", "t20", "odi", "wickets", "innings"}},
	{"tennis", []string{"tennis", "atp", "wta", "wimbledon", "open final set"}},
	{"football", []string{
		"football", "soccer", "premier league", "la liga", "champions league",
		"serie a", "bundesliga", "fc ", " cf", "united", "city", "madrid", "draw",
	}},
}

// classifySport clasifica el mercado por heurística de texto. Devuelve ""
// cuando no reconoce el deporte; las estrategias market-only siguen aplicando.
func classifySport(question, slug string) string {
	text := strings.ToLower(question + " " + strings.ReplaceAll(slug, "-", " "))
	for _, sm := range sportMarkers {
		for _, marker := range sm.markers {
			if strings.Contains(text, marker) {
				return sm.sport
			}
		}
	}
	return ""
}
