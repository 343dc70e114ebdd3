package update

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/matheuskafuri/menuscore/internal/fetch"
)

// ReleasesURL is the GitHub endpoint for the latest menuscore release.
const ReleasesURL = "https://api.github.com/repos/matheuskafuri/menuscore/releases/latest"

// Getter fetches one page.
type Getter interface {
	Get(ctx context.Context, rawURL string) (fetch.Page, error)
}

// Result holds the outcome of a version check.
type Result struct {
	Current       string
	LatestVersion string
}

// Newer reports whether the latest release differs from the running build.
func (r Result) Newer() bool {
	return r.LatestVersion != "" && r.LatestVersion != r.Current
}

type ghRelease struct {
	TagName string `json:"tag_name"`
}

// Check asks the releases endpoint for the latest tag. Development builds
// ("dev") always compare as older.
func Check(ctx context.Context, g Getter, releasesURL, currentVersion string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res := Result{Current: strings.TrimPrefix(currentVersion, "v")}
	page, err := g.Get(ctx, releasesURL)
	if err != nil {
		return res, fmt.Errorf("checking for updates: %w", err)
	}

	var release ghRelease
	if err := json.Unmarshal(page.Body, &release); err != nil {
		return res, fmt.Errorf("decoding release: %w", err)
	}
	res.LatestVersion = strings.TrimPrefix(release.TagName, "v")
	return res, nil
}
