package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

const defaultBase = "https://site.api.espn.com/apis/site/v2/sports"

// scoreboard paths por deporte soportado
var leaguePaths = map[string][]string{
	"football": {"/soccer/eng.1/scoreboard", "/soccer/esp.1/scoreboard", "/soccer/uefa.champions/scoreboard"},
	"nba":      {"/basketball/nba/scoreboard"},
	"cricket":  {"/cricket/8048/scoreboard"},
	"tennis":   {"/tennis/atp/scoreboard"},
}

// liveEvent es un SportsEvent más los nombres de equipo que usamos para el
// matching con questions de mercados. Los nombres no salen del paquete.
type liveEvent struct {
	domain.SportsEvent
	teams string
}

// Feed implementa ports.SportsFeed sobre los scoreboards públicos de ESPN.
// Detecta goles, wickets y rachas comparando el marcador con el ciclo
// anterior, y empareja partidos con mercados por nombres de equipo.
type Feed struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
	prev    map[string]domain.ScoreState // eventID → último marcador visto
}

// NewFeed crea el feed. base vacío usa la API pública de ESPN.
func NewFeed(base string) *Feed {
	if base == "" {
		base = defaultBase
	}
	return &Feed{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    base,
		limiter: rate.NewLimiter(rate.Limit(5), 8),
		prev:    make(map[string]domain.ScoreState),
	}
}

// FetchEvents descarga los scoreboards de los deportes presentes en el scan y
// devuelve los partidos en vivo emparejados por market id. Un deporte caído
// se omite; el resto del ciclo sigue.
func (f *Feed) FetchEvents(ctx context.Context, markets []domain.MarketSnapshot) (map[string]domain.SportsEvent, error) {
	sports := make(map[string]bool)
	for _, m := range markets {
		if m.Sport != "" {
			sports[m.Sport] = true
		}
	}

	var live []liveEvent
	for sport := range sports {
		events, err := f.fetchSport(ctx, sport)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("espn scoreboard failed", "sport", sport, "error", err)
			continue
		}
		live = append(live, events...)
	}
	if len(live) == 0 {
		return map[string]domain.SportsEvent{}, nil
	}

	matched := make(map[string]domain.SportsEvent)
	for _, m := range markets {
		if m.Sport == "" {
			continue
		}
		if ev, ok := matchEvent(m.Question, live); ok {
			matched[m.MarketID] = ev
		}
	}

	slog.Debug("sports events matched", "live", len(live), "matched", len(matched))
	return matched, nil
}

func (f *Feed) fetchSport(ctx context.Context, sport string) ([]liveEvent, error) {
	paths, ok := leaguePaths[sport]
	if !ok {
		return nil, nil
	}

	var out []liveEvent
	for _, path := range paths {
		var sb scoreboardResponse
		if err := f.get(ctx, f.base+path, &sb); err != nil {
			return nil, err
		}
		now := time.Now()
		for _, raw := range sb.Events {
			ev, ok := f.mapEvent(raw, sport, now)
			if !ok {
				continue
			}
			out = append(out, ev)
		}
	}
	return out, nil
}

// mapEvent convierte un evento raw y deduce el último incidente comparando
// con el marcador del ciclo anterior.
func (f *Feed) mapEvent(raw scoreboardEvent, sport string, now time.Time) (liveEvent, bool) {
	if len(raw.Competitions) == 0 {
		return liveEvent{}, false
	}
	comp := raw.Competitions[0]
	if len(comp.Competitors) < 2 {
		return liveEvent{}, false
	}

	ev := liveEvent{
		SportsEvent: domain.SportsEvent{
			EventID:   raw.ID,
			Sport:     sport,
			Clock:     raw.Status.DisplayClock,
			Final:     raw.Status.Type.Completed,
			Timestamp: now,
		},
	}
	names := make([]string, 0, 2)
	for _, c := range comp.Competitors {
		runs, wickets := parseScore(sport, c.Score)
		if c.HomeAway == "home" {
			ev.Score.Home = runs
		} else {
			ev.Score.Away = runs
		}
		if wickets > ev.Score.Wickets {
			ev.Score.Wickets = wickets
		}
		names = append(names, c.Team.DisplayName)
	}
	ev.teams = strings.Join(names, " vs ")
	if sport == "cricket" {
		ev.Score.Overs = parseOvers(raw.Status.DisplayClock)
	}
	ev.Score.CompletionPct = completionPct(sport, raw.Status.Period, ev.Minute())

	prev, seen := f.prev[ev.EventID]
	if seen {
		kind, run := detectIncident(sport, prev, ev.Score)
		ev.LastEvent = kind
		ev.Score.RunPoints = run
	}
	// Los partidos terminados salen del tracking de marcadores.
	if ev.Final {
		delete(f.prev, ev.EventID)
	} else {
		f.prev[ev.EventID] = ev.Score
	}

	return ev, true
}

func (f *Feed) get(ctx context.Context, url string, out any) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("espn: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// parseScore acepta marcadores simples ("87") y de cricket ("145/3").
func parseScore(sport, s string) (runs, wickets int) {
	s = strings.TrimSpace(s)
	if sport == "cricket" {
		if i := strings.Index(s, "/"); i >= 0 {
			runs, _ = strconv.Atoi(s[:i])
			wickets, _ = strconv.Atoi(s[i+1:])
			return runs, wickets
		}
	}
	runs, _ = strconv.Atoi(s)
	return runs, 0
}

// parseOvers extrae los overs de un clock tipo "14.3 ov".
func parseOvers(clock string) float64 {
	c := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(clock), "ov"))
	v, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
	if err != nil {
		return 0
	}
	return v
}

// detectIncident clasifica el delta de marcador entre dos ciclos. Para la NBA
// devuelve también el tamaño de la racha detectada.
func detectIncident(sport string, prev, cur domain.ScoreState) (domain.EventKind, int) {
	dh := cur.Home - prev.Home
	da := cur.Away - prev.Away

	switch sport {
	case "cricket":
		if cur.Wickets > prev.Wickets {
			return domain.EventWicket, 0
		}
	case "football":
		if dh > 0 || da > 0 {
			return domain.EventGoal, 0
		}
	case "nba":
		// Racha: 10+ puntos de un equipo con el rival casi parado.
		if dh >= 10 && da <= 2 {
			return domain.EventRun, dh
		}
		if da >= 10 && dh <= 2 {
			return domain.EventRun, da
		}
	}
	return domain.EventNone, 0
}

// completionPct estima el porcentaje de partido jugado.
func completionPct(sport string, period, minute int) float64 {
	switch sport {
	case "football":
		return clampPct(float64(minute) / 90 * 100)
	case "nba":
		return clampPct(float64(period) / 4 * 100)
	case "cricket":
		return clampPct(float64(period) / 2 * 100)
	}
	return 0
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// matchEvent empareja un mercado con un partido si la question menciona a
// alguno de los equipos. Se queda con el partido que más tokens comparte.
func matchEvent(question string, events []liveEvent) (domain.SportsEvent, bool) {
	q := strings.ToLower(question)
	best := -1
	bestScore := 0
	for i, ev := range events {
		score := 0
		for _, token := range strings.Fields(strings.ToLower(ev.teams)) {
			if len(token) < 4 || token == "united" {
				continue
			}
			if strings.Contains(q, token) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return domain.SportsEvent{}, false
	}
	return events[best].SportsEvent, true
}
