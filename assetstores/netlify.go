package assetstores

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
)

const netlifyAPIURL = "https://api.netlify.com/api/v1"

var assetURLRegexp = regexp.MustCompile(`cloud.netlifyusercontent.com/assets/([^/]+)/([^/]+)/`)

type netlifyProvider struct {
	client *http.Client
	token  string
}

func newNetlifyProvider(token string) (*netlifyProvider, error) {
	if token == "" {
		return nil, errors.New("No access token configured for Netlify")
	}

	return &netlifyProvider{
		client: &http.Client{},
		token:  token,
	}, nil
}

type netlifySignature struct {
	URL string `json:"url"`
}

// SignURL exchanges a stored asset locator for a short-lived public
// signature through the Netlify API.
func (n *netlifyProvider) SignURL(url string) (string, error) {
	matches := assetURLRegexp.FindStringSubmatch(url)
	if len(matches) != 3 {
		return "", errors.New("URL didn't match a Netlify asset URL")
	}

	apiURL := netlifyAPIURL + "/sites/" + matches[1] + "/assets/" + matches[2] + "/public_signature"
	req, err := http.NewRequest(http.MethodGet, apiURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Add("Authorization", "Bearer "+n.token)

	resp, err := n.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("signing asset URL failed with status %d", resp.StatusCode)
	}

	signature := &netlifySignature{}
	if err := json.NewDecoder(resp.Body).Decode(signature); err != nil {
		return "", err
	}

	return signature.URL, nil
}
