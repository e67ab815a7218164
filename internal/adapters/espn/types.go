package espn

// DTOs mínimos del scoreboard de ESPN. Solo los campos que consumimos.

type scoreboardResponse struct {
	Events []scoreboardEvent `json:"events"`
}

type scoreboardEvent struct {
	ID           string        `json:"id"`
	Status       eventStatus   `json:"status"`
	Competitions []competition `json:"competitions"`
}

type eventStatus struct {
	DisplayClock string     `json:"displayClock"`
	Period       int        `json:"period"`
	Type         statusType `json:"type"`
}

type statusType struct {
	Completed bool `json:"completed"`
}

type competition struct {
	Competitors []competitor `json:"competitors"`
}

type competitor struct {
	HomeAway string `json:"homeAway"`
	Score    string `json:"score"`
	Team     team   `json:"team"`
}

type team struct {
	DisplayName string `json:"displayName"`
}
