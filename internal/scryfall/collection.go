package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// MaxBatchSize is the maximum number of cards per batch request (Scryfall limit is 75).
const MaxBatchSize = 75

// Collection fetches one batch of cards by name from /cards/collection.
// Callers are responsible for splitting requests larger than MaxBatchSize.
// Returns the resolved cards plus the requested names that did not match.
func (c *Client) Collection(ctx context.Context, names []string) ([]Card, []string, error) {
	if len(names) == 0 {
		return []Card{}, nil, nil
	}
	if len(names) > MaxBatchSize {
		return nil, nil, fmt.Errorf("collection request of %d names exceeds batch limit %d", len(names), MaxBatchSize)
	}

	identifiers := make([]CardIdentifier, len(names))
	for i, name := range names {
		identifiers[i] = CardIdentifier{Name: name}
	}

	reqBody, err := json.Marshal(CollectionRequest{Identifiers: identifiers})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp CollectionResponse
	if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/cards/collection", reqBody, &resp); err != nil {
		return nil, nil, fmt.Errorf("failed to fetch cards from Scryfall: %w", err)
	}

	notFound := make([]string, 0, len(resp.NotFound))
	for _, id := range resp.NotFound {
		if id.Name != "" {
			notFound = append(notFound, id.Name)
		}
	}

	return resp.Data, notFound, nil
}
