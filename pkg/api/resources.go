package api

import (
	"context"
	"net/url"
	"strings"

	"github.com/pcameron/labelagent/pkg/game"
)

// ArtistsByIDs fetches artist records in bulk.
func (c *Client) ArtistsByIDs(ctx context.Context, ids []string) ([]game.Artist, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var artists []game.Artist
	_, err := c.get(ctx, "/artists/by-ids?ids="+url.QueryEscape(strings.Join(ids, ",")), &artists)
	if err != nil {
		return nil, err
	}
	return artists, nil
}

// GetLabel fetches a label record.
func (c *Client) GetLabel(ctx context.Context, labelID string) (*game.Label, error) {
	var label game.Label
	if _, err := c.get(ctx, "/rap-labels/"+labelID, &label); err != nil {
		return nil, err
	}
	return &label, nil
}

// Contracts fetches a label's contracts.
func (c *Client) Contracts(ctx context.Context, labelID string) ([]game.Contract, error) {
	var contracts []game.Contract
	if _, err := c.get(ctx, "/rap-labels/"+labelID+"/contracts", &contracts); err != nil {
		return nil, err
	}
	return contracts, nil
}

// Contract fetches a single contract record.
func (c *Client) Contract(ctx context.Context, contractID string) (*game.Contract, error) {
	var contract game.Contract
	if _, err := c.get(ctx, "/contracts/"+contractID, &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}

// Beats fetches a label's beat inventory.
func (c *Client) Beats(ctx context.Context, labelID string) ([]game.Beat, error) {
	var beats []game.Beat
	if _, err := c.get(ctx, "/rap-labels/"+labelID+"/beats", &beats); err != nil {
		return nil, err
	}
	return beats, nil
}

// Releases fetches a label's releases.
func (c *Client) Releases(ctx context.Context, labelID string) ([]game.Release, error) {
	var releases []game.Release
	if _, err := c.get(ctx, "/rap-labels/"+labelID+"/releases", &releases); err != nil {
		return nil, err
	}
	return releases, nil
}

// CreatePlayerRequest creates the game-side player record for a provider account.
type CreatePlayerRequest struct {
	FirebaseUserID string `json:"firebaseUserId"`
	Username       string `json:"username"`
}

// PlayerByProviderUID looks up the player bound to an identity-provider account.
func (c *Client) PlayerByProviderUID(ctx context.Context, uid string) (*game.Player, error) {
	var player game.Player
	if _, err := c.get(ctx, "/players/firebase/"+uid, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

// CreatePlayer registers a new player record.
func (c *Client) CreatePlayer(ctx context.Context, req CreatePlayerRequest) (*game.Player, error) {
	var player game.Player
	if err := c.post(ctx, "/players", req, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

// EnsurePlayer returns the player for the provider account, creating the
// record on first sign-in.
func (c *Client) EnsurePlayer(ctx context.Context, uid, username string) (*game.Player, error) {
	player, err := c.PlayerByProviderUID(ctx, uid)
	if err == nil {
		return player, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}
	return c.CreatePlayer(ctx, CreatePlayerRequest{FirebaseUserID: uid, Username: username})
}
