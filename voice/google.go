package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/buger/jsonparser"

	"speechbox/voice/transcoding"
)

// GoogleSpeech recognizes speech with the google web speech api (v2),
// the same endpoint chromium's speech input uses
type GoogleSpeech struct {
	URL      string
	Key      string
	Language string
	Client   *http.Client
}

var _ STT = &GoogleSpeech{}

func (api *GoogleSpeech) SpeechToText(ctx context.Context, record *transcoding.Record) (string, error) {
	query := url.Values{
		"client":  {"chromium"},
		"lang":    {api.Language},
		"key":     {api.Key},
		"pFilter": {"0"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, api.URL+"?"+query.Encode(), bytes.NewReader(record.L16()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "audio/l16; rate="+strconv.Itoa(record.SampleRate()))

	client := api.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach google speech; %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read google speech response; %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google speech returned %s: %s", resp.Status, truncate(body, 200))
	}

	return parseGoogleSpeech(body)
}

// The response is one JSON object per line. The first lines usually
// carry an empty "result"; the first non-empty one holds the alternatives.
func parseGoogleSpeech(body []byte) (string, error) {
	for _, line := range bytes.Split(body, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		if line[0] != '{' || line[len(line)-1] != '}' {
			return "", fmt.Errorf("malformed google speech response: %s", truncate(line, 200))
		}

		results, _, _, err := jsonparser.Get(line, "result")
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("malformed google speech response; %w", err)
		}

		var first []byte
		jsonparser.ArrayEach(results, func(result []byte, _ jsonparser.ValueType, _ int, _ error) {
			if first == nil {
				first = result
			}
		})
		if first == nil {
			continue // "result": []
		}

		return bestAlternative(first)
	}

	return "", ErrUnknownValue
}

// pick the most confident alternative, or the first when none carry a confidence
func bestAlternative(result []byte) (string, error) {
	var (
		best       string
		bestConf   = -1.0
		seenAny    bool
		firstFound string
	)

	_, err := jsonparser.ArrayEach(result, func(alt []byte, _ jsonparser.ValueType, _ int, _ error) {
		text, err := jsonparser.GetString(alt, "transcript")
		if err != nil {
			return
		}
		if !seenAny {
			firstFound = text
			seenAny = true
		}
		if conf, err := jsonparser.GetFloat(alt, "confidence"); err == nil && conf > bestConf {
			best, bestConf = text, conf
		}
	}, "alternative")
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return "", fmt.Errorf("malformed google speech alternatives; %w", err)
	}

	if !seenAny {
		return "", ErrUnknownValue
	}
	if bestConf >= 0 {
		return best, nil
	}
	return firstFound, nil
}

func truncate(body []byte, n int) string {
	if len(body) > n {
		return string(body[:n]) + "..."
	}
	return string(body)
}
