package game

// Label is the player-owned record company. Bankroll is backend-authoritative:
// the client only ever corrects it by refetching, never by local arithmetic.
type Label struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	OwnerID             string   `json:"ownerId"`
	Bankroll            int64    `json:"bankroll"`
	ProductionStyles    []string `json:"productionStyles,omitempty"`
	TaskIDs             []string `json:"taskIds,omitempty"`
	DiscoveredArtistIDs []string `json:"discoveredArtistIds,omitempty"`
	Rank                int      `json:"rank"`
	Reputation          int      `json:"reputation"`
	Hype                int      `json:"hype"`
	XP                  int64    `json:"xp"`
	CreatedAt           Millis   `json:"createdAt"`
	UpdatedAt           Millis   `json:"updatedAt"`
}

// Artist is a performer the player can scout, sign, and record with.
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres,omitempty"`
	Skill      int      `json:"skill"`
	Popularity int      `json:"popularity"`
	Stamina    int      `json:"stamina"`
}

// Contract binds an artist to a label for a number of releases.
type Contract struct {
	ID               string  `json:"id"`
	LabelID          string  `json:"labelId"`
	ArtistID         string  `json:"artistId"`
	ReleasesRequired int     `json:"releasesRequired"`
	ReleasesDone     int     `json:"releasesDone"`
	Cut              float64 `json:"cut"`
	SignedAt         Millis  `json:"signedAt"`
	ExpiresAt        *Millis `json:"expiresAt,omitempty"`
}

// Beat is a produced instrumental owned by a label.
type Beat struct {
	ID      string `json:"id"`
	LabelID string `json:"labelId"`
	Name    string `json:"name"`
	Style   string `json:"style,omitempty"`
	Quality int    `json:"quality"`
}

// Release is a recorded (and possibly published) body of work.
type Release struct {
	ID          string   `json:"id"`
	LabelID     string   `json:"labelId"`
	ArtistID    string   `json:"artistId"`
	Title       string   `json:"title"`
	TrackIDs    []string `json:"trackIds,omitempty"`
	Published   bool     `json:"published"`
	PublishedAt *Millis  `json:"publishedAt,omitempty"`
	Streams     int64    `json:"streams"`
	Revenue     int64    `json:"revenue"`
}

// Player bridges the identity-provider account to the game's own player record.
type Player struct {
	ID             string `json:"id"`
	FirebaseUserID string `json:"firebaseUserId"`
	Username       string `json:"username"`
	LabelID        string `json:"labelId,omitempty"`
	CreatedAt      Millis `json:"createdAt"`
}

// CostPrediction is the backend's estimate for a task before it is created.
type CostPrediction struct {
	BudgetRequired int64 `json:"budgetRequired"`
	Duration       int64 `json:"duration"`
	StaminaCost    int   `json:"staminaCost"`
}
