// Package source wraps the source platform API behind the interfaces the
// pipeline consumes: repository metadata, manifest content, tree listings,
// and the public event feed.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// DefaultCacheTTL is the default TTL for cached responses.
	DefaultCacheTTL = time.Hour

	// AuthenticatedRateLimit is requests per minute with token.
	AuthenticatedRateLimit = 60

	// UnauthenticatedRateLimit is requests per minute without token.
	UnauthenticatedRateLimit = 10

	// DefaultRequestTimeout bounds every upstream call so one unresponsive
	// request cannot stall a whole run.
	DefaultRequestTimeout = 30 * time.Second
)

// ErrNotFound indicates the repository or file does not exist upstream.
// Consumers drop the work item without retrying.
var ErrNotFound = errors.New("source: not found")

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// RepoInfo contains repository metadata.
type RepoInfo struct {
	Owner         string
	Name          string
	FullName      string
	Description   string
	Stars         int
	Forks         int
	Fork          bool
	DefaultBranch string
	HeadSHA       string
	PushedAt      time.Time
	OwnerAvatar   string
}

// ManifestFile is one manifest discovered in a repository tree.
type ManifestFile struct {
	Path string
	SHA  string
}

// Event is one entry from the public event feed.
type Event struct {
	ID        string
	Type      string
	Owner     string
	Repo      string
	CreatedAt time.Time
}

// PushEventType is the event type indicating a content push.
const PushEventType = "PushEvent"

// IsPush reports whether the event indicates a content push.
func (e Event) IsPush() bool {
	return e.Type == PushEventType
}

// ResponseCache provides TTL-based caching for API responses.
type ResponseCache struct {
	data map[string]cacheEntry
	ttl  time.Duration
	mu   sync.RWMutex
}

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// NewResponseCache creates a new cache with the specified TTL.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		data: make(map[string]cacheEntry),
		ttl:  ttl,
	}
}

// Get retrieves a value from the cache if it exists and hasn't expired.
func (c *ResponseCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// Set stores a value in the cache.
func (c *ResponseCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Clear removes all entries from the cache.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]cacheEntry)
}

// GitHubClient wraps the GitHub API with rate limiting and caching.
type GitHubClient struct {
	rest    *github.Client
	limiter *rate.Limiter
	cache   *ResponseCache
	timeout time.Duration
}

// Options configures a GitHubClient.
type Options struct {
	Token          string
	RateLimit      int // requests per minute; 0 = auto based on auth
	CacheTTL       time.Duration
	RequestTimeout time.Duration
}

// NewGitHubClient creates a new GitHub client.
func NewGitHubClient(opts Options) *GitHubClient {
	var httpClient *http.Client
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	rateLimit := opts.RateLimit
	if rateLimit <= 0 {
		if opts.Token != "" {
			rateLimit = AuthenticatedRateLimit
		} else {
			rateLimit = UnauthenticatedRateLimit
		}
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(rateLimit)), rateLimit)

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return &GitHubClient{
		rest:    github.NewClient(httpClient),
		limiter: limiter,
		cache:   NewResponseCache(ttl),
		timeout: timeout,
	}
}

// call waits for the rate limiter and runs fn under the request timeout.
func (c *GitHubClient) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return fn(callCtx)
}

// classify maps a go-github error to the pipeline's error taxonomy:
// 404 is ErrNotFound (drop, no retry); everything else is retryable,
// including 403/429 rate limiting.
func classify(resp *github.Response, err error) error {
	if err == nil {
		return nil
	}
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return fmt.Errorf("rate limited until %v: %w", rle.Rate.Reset.Time, err)
	}
	return err
}

// GetRepository fetches repository metadata.
func (c *GitHubClient) GetRepository(ctx context.Context, owner, repo string) (*RepoInfo, error) {
	cacheKey := fmt.Sprintf("repo:%s/%s", owner, repo)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(*RepoInfo), nil
	}

	var repository *github.Repository
	err := c.call(ctx, func(ctx context.Context) error {
		var resp *github.Response
		var err error
		repository, resp, err = c.rest.Repositories.Get(ctx, owner, repo)
		return classify(resp, err)
	})
	if err != nil {
		return nil, fmt.Errorf("get repository %s/%s: %w", owner, repo, err)
	}

	info := &RepoInfo{
		Owner:         owner,
		Name:          repository.GetName(),
		FullName:      repository.GetFullName(),
		Description:   repository.GetDescription(),
		Stars:         repository.GetStargazersCount(),
		Forks:         repository.GetForksCount(),
		Fork:          repository.GetFork(),
		DefaultBranch: repository.GetDefaultBranch(),
		PushedAt:      repository.GetPushedAt().Time,
		OwnerAvatar:   repository.GetOwner().GetAvatarURL(),
	}

	// Head sha on the default branch drives change detection.
	if branch := info.DefaultBranch; branch != "" {
		err := c.call(ctx, func(ctx context.Context) error {
			b, resp, err := c.rest.Repositories.GetBranch(ctx, owner, repo, branch, 0)
			if err != nil {
				return classify(resp, err)
			}
			if b != nil && b.Commit != nil {
				info.HeadSHA = b.Commit.GetSHA()
			}
			return nil
		})
		if err != nil && !IsNotFound(err) {
			return nil, fmt.Errorf("get branch %s/%s@%s: %w", owner, repo, branch, err)
		}
	}

	c.cache.Set(cacheKey, info)
	return info, nil
}

// GetFileContent fetches raw file content from a repository.
// Returns ErrNotFound when the path does not exist.
func (c *GitHubClient) GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	cacheKey := fmt.Sprintf("content:%s/%s:%s@%s", owner, repo, path, ref)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(string), nil
	}

	var content string
	err := c.call(ctx, func(ctx context.Context) error {
		opts := &github.RepositoryContentGetOptions{}
		if ref != "" {
			opts.Ref = ref
		}
		fileContent, _, resp, err := c.rest.Repositories.GetContents(ctx, owner, repo, path, opts)
		if err != nil {
			return classify(resp, err)
		}
		if fileContent == nil {
			return ErrNotFound
		}
		content, err = fileContent.GetContent()
		if err != nil {
			return fmt.Errorf("decode content: %w", err)
		}
		return nil
	})
	if err != nil {
		if IsNotFound(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get contents %s/%s:%s: %w", owner, repo, path, err)
	}

	c.cache.Set(cacheKey, content)
	return content, nil
}

// ListManifestFiles lists all manifest files in a repository tree.
// If pathPrefix is non-empty, only entries under it are returned.
func (c *GitHubClient) ListManifestFiles(ctx context.Context, owner, repo, pathPrefix string) ([]ManifestFile, error) {
	cacheKey := fmt.Sprintf("tree:%s/%s:%s", owner, repo, pathPrefix)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]ManifestFile), nil
	}

	info, err := c.GetRepository(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	branch := info.DefaultBranch
	if branch == "" {
		branch = "main"
	}

	var tree *github.Tree
	err = c.call(ctx, func(ctx context.Context) error {
		var resp *github.Response
		var err error
		tree, resp, err = c.rest.Git.GetTree(ctx, owner, repo, branch, true)
		return classify(resp, err)
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tree %s/%s: %w", owner, repo, err)
	}

	var files []ManifestFile
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		entryPath := entry.GetPath()
		if pathPrefix != "" && !strings.HasPrefix(entryPath, pathPrefix) {
			continue
		}
		parts := strings.Split(entryPath, "/")
		if IsManifestFile(parts[len(parts)-1]) {
			files = append(files, ManifestFile{Path: entryPath, SHA: entry.GetSHA()})
		}
	}

	c.cache.Set(cacheKey, files)
	return files, nil
}

// ListPublicEvents fetches the most recent page of public events.
// Results are never cached: the feed is consumed once per tick.
func (c *GitHubClient) ListPublicEvents(ctx context.Context, perPage int) ([]Event, error) {
	var raw []*github.Event
	err := c.call(ctx, func(ctx context.Context) error {
		opts := &github.ListOptions{PerPage: perPage}
		var resp *github.Response
		var err error
		raw, resp, err = c.rest.Activity.ListEvents(ctx, opts)
		return classify(resp, err)
	})
	if err != nil {
		return nil, fmt.Errorf("list public events: %w", err)
	}

	events := make([]Event, 0, len(raw))
	for _, e := range raw {
		fullName := e.GetRepo().GetName() // "owner/repo"
		owner, repo, ok := strings.Cut(fullName, "/")
		if !ok {
			continue
		}
		events = append(events, Event{
			ID:        e.GetID(),
			Type:      e.GetType(),
			Owner:     owner,
			Repo:      repo,
			CreatedAt: e.GetCreatedAt().Time,
		})
	}
	return events, nil
}

// IsManifestFile checks if a filename matches known manifest patterns.
func IsManifestFile(filename string) bool {
	lower := strings.ToLower(filename)
	return lower == "skill.md"
}

// ManifestFallbackPaths are the canonical locations checked, in order, when
// a work item carries no explicit path.
func ManifestFallbackPaths() []string {
	return []string{"SKILL.md", "skill.md", "docs/SKILL.md", ".claude/SKILL.md"}
}
