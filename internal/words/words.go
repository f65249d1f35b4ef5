// Package words loads the local dictionary and picks secret words,
// preferring an external random-word provider with the dictionary as
// an always-available fallback.
package words

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	constants "vortdiveno/internal/constants"
	util "vortdiveno/internal/util"
)

// Load reads the word file, a JSON object whose keys are the usable
// words (values are ignored). Keys that are not five letters are
// skipped with a warning.
func Load(path string) ([]string, error) {
	util.LogInfo("Loading words from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	list := lo.Filter(lo.Keys(entries), func(word string, _ int) bool {
		if len(word) != constants.WordLength {
			util.LogWarn("Skipping word %q: not %d letters", word, constants.WordLength)
			return false
		}
		return true
	})
	sort.Strings(list)

	util.LogInfo("Successfully loaded %d words", len(list))
	return list, nil
}

// Source supplies secret words. A nil or unreachable provider is never
// an error; the local list is the last resort.
type Source struct {
	list   []string
	apiURL string
	client *http.Client
}

// NewSource builds a Source over the local list, with an optional
// provider URL. The list must be non-empty so a word can always be
// picked when the provider is unavailable.
func NewSource(list []string, apiURL string) (*Source, error) {
	if len(list) == 0 {
		return nil, errors.New("word list is empty")
	}
	return &Source{
		list:   list,
		apiURL: apiURL,
		client: &http.Client{Timeout: 2 * time.Second},
	}, nil
}

// RandomWord returns a five-letter lowercase word. Provider failures
// fall back silently to the local list.
func (s *Source) RandomWord(ctx context.Context) string {
	if word, err := s.fetchRemote(ctx); err == nil {
		return word
	} else if s.apiURL != "" {
		util.LogWarn("Word provider unavailable, using local list: %v", err)
	}
	return s.localWord()
}

func (s *Source) fetchRemote(ctx context.Context) (string, error) {
	if s.apiURL == "" {
		return "", errors.New("no provider configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New("provider returned " + resp.Status)
	}

	var payload []string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if len(payload) == 0 {
		return "", errors.New("provider returned empty payload")
	}

	word := strings.ToLower(strings.TrimSpace(payload[0]))
	if len(word) != constants.WordLength {
		return "", errors.New("provider returned word of wrong length: " + word)
	}
	return word, nil
}

func (s *Source) localWord() string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(s.list))))
	if err != nil {
		util.LogWarn("Error generating random number: %v, using fallback", err)
		return s.list[0]
	}
	return s.list[n.Int64()]
}
