package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dstanton/mailsearch-mcp/internal/query"
	"github.com/dstanton/mailsearch-mcp/internal/ranking"
	"github.com/dstanton/mailsearch-mcp/internal/snippet"
	"github.com/dstanton/mailsearch-mcp/internal/store"
	"github.com/dstanton/mailsearch-mcp/pkg/types"
)

// Mode selects the output detail level
type Mode string

const (
	// ModeList returns metadata only; bodies are never fetched.
	ModeList Mode = "list"
	// ModeContent additionally scores bodies and returns match snippets,
	// at extra per-item cost.
	ModeContent Mode = "content"
)

// bodyFetchWorkers bounds concurrent lazy body fetches in content mode.
const bodyFetchWorkers = 8

// Request contains parameters for a search operation
type Request struct {
	Pattern  string
	Path     string // account/folder[/subfolder]
	Mode     Mode
	Since    *time.Time
	Until    *time.Time
	Offset   int
	UseCache bool
	CacheTTL time.Duration
}

// Response contains one page of results and search metadata
type Response struct {
	Page       types.Page
	Capability string
	Duration   time.Duration
	CacheHit   bool
	// Diagnostic is set when the backend rejected the compiled filter and
	// the search was recovered as an empty result set.
	Diagnostic string
}

// cacheEntry is a cached response with its expiration time
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// Searcher runs the full query pipeline: parse, compile, fetch candidates,
// rank, paginate, annotate.
type Searcher struct {
	store    store.Store
	ranking  ranking.Config
	snippets snippet.Config
	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheMu  sync.RWMutex
	now      func() time.Time
}

// New creates a Searcher over the given store with the given scoring and
// snippet configuration.
func New(st store.Store, rcfg ranking.Config, scfg snippet.Config) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		// Only possible with an invalid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}
	return &Searcher{
		store:    st,
		ranking:  rcfg,
		snippets: scfg,
		cache:    cache,
		now:      time.Now,
	}
}

// SplitPath parses "account/folder/subfolder" into account and folder path.
// An account alone is rejected: account-only searches return nothing useful
// and callers should enumerate folders first.
func SplitPath(path string) (account, folderPath string, err error) {
	if path == "" {
		return "", "", types.ErrEmptyPath
	}
	account, folderPath, found := strings.Cut(path, "/")
	if !found || folderPath == "" {
		return account, "", fmt.Errorf("%w: %q", types.ErrFolderRequired, path)
	}
	return account, folderPath, nil
}

// Search executes one query and returns a ranked, paginated page.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	if req.Mode == "" {
		req.Mode = ModeList
	}
	if req.Mode != ModeList && req.Mode != ModeContent {
		return nil, fmt.Errorf("unsupported output mode: %s", req.Mode)
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	if req.CacheTTL == 0 {
		req.CacheTTL = time.Hour
	}

	account, folderPath, err := SplitPath(req.Path)
	if err != nil {
		return nil, err
	}

	if req.UseCache {
		if cached := s.checkCache(req); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(start)
			return cached, nil
		}
	}

	folder, err := s.store.LookupFolder(ctx, account, folderPath)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("folder not found: %s: %w", req.Path, err)
		}
		return nil, err
	}

	expr := query.Parse(req.Pattern)
	terms := query.ExtractTerms(req.Pattern)

	policy := s.store.FieldPolicy(folder)
	capability := s.store.Capability(ctx)
	filter := query.Compile(expr, query.DateRange{Since: req.Since, Until: req.Until}, policy, capability)

	resp := &Response{Capability: capability.String()}

	items, err := s.store.ListCandidates(ctx, folder, filter)
	if err != nil {
		if errors.Is(err, store.ErrFilterRejected) {
			// Recover with an empty result set instead of failing the
			// whole request; the diagnostic tells the caller why.
			resp.Diagnostic = err.Error()
			_, resp.Page.Pagination = ranking.Paginate(nil, req.Offset, s.ranking.PageSize)
			resp.Page.Results = []types.Result{}
			resp.Duration = time.Since(start)
			return resp, nil
		}
		return nil, err
	}

	includeBody := req.Mode == ModeContent
	if includeBody {
		s.fetchBodies(ctx, items)
	}

	now := s.now()
	ranked, err := ranking.Rank(ctx, items, terms, includeBody, now, s.ranking)
	if err != nil {
		return nil, err
	}

	window, pg := ranking.Paginate(ranked, req.Offset, s.ranking.PageSize)

	results := make([]types.Result, 0, len(window))
	for _, sc := range window {
		results = append(results, s.buildResult(sc.Item, folder, terms, now, includeBody))
	}

	resp.Page = types.Page{Pagination: pg, Results: results}
	resp.Duration = time.Since(start)

	if req.UseCache && len(results) > 0 {
		s.storeInCache(req, resp)
	}

	return resp, nil
}

// fetchBodies lazily loads bodies for content-mode scoring. Per-item fetch
// failures leave the body empty; a missing body never aborts the query.
func (s *Searcher) fetchBodies(ctx context.Context, items []types.Item) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bodyFetchWorkers)
	for i := range items {
		g.Go(func() error {
			body, htmlBody, err := s.store.Body(gctx, items[i].ID)
			if err != nil {
				return nil
			}
			items[i].Body = body
			items[i].HTMLBody = htmlBody
			return nil
		})
	}
	_ = g.Wait()
}

// buildResult converts a ranked item into its external record, dropping the
// transient scores.
func (s *Searcher) buildResult(it types.Item, folder *types.Folder, terms []string, now time.Time, includeBody bool) types.Result {
	r := types.Result{
		EntryID:        types.EncodeEntryID(it.EntryID),
		Subject:        it.Subject,
		Sender:         it.Sender,
		Date:           types.FormatCompactDate(it.Timestamp, now),
		HasAttachments: it.HasAttachments,
	}
	if folder.Kind == types.FolderMail {
		isRead := !it.Unread
		r.IsRead = &isRead
	}
	if includeBody {
		body := it.Body
		if body == "" && it.HTMLBody != "" {
			body = snippet.StripHTML(it.HTMLBody)
		}
		r.Matches = snippet.Extract(body, terms, s.snippets)
	}
	return r
}

// Cache

func cacheKey(req Request) [32]byte {
	var b strings.Builder
	b.WriteString(req.Pattern)
	b.WriteString("|")
	b.WriteString(req.Path)
	b.WriteString("|")
	b.WriteString(string(req.Mode))
	b.WriteString("|")
	if req.Since != nil {
		b.WriteString(req.Since.Format("2006-01-02"))
	}
	b.WriteString("|")
	if req.Until != nil {
		b.WriteString(req.Until.Format("2006-01-02"))
	}
	b.WriteString("|")
	fmt.Fprintf(&b, "%d", req.Offset)
	return sha256.Sum256([]byte(b.String()))
}

func (s *Searcher) checkCache(req Request) *Response {
	key := cacheKey(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(key)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}
	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(key)
		s.cacheMu.Unlock()
		return nil
	}
	resp := copyResponse(entry.response)
	s.cacheMu.RUnlock()
	return resp
}

func (s *Searcher) storeInCache(req Request, resp *Response) {
	entry := &cacheEntry{
		response:  copyResponse(resp),
		expiresAt: time.Now().Add(req.CacheTTL),
	}
	s.cacheMu.Lock()
	s.cache.Add(cacheKey(req), entry)
	s.cacheMu.Unlock()
}

// InvalidateCache drops all cached responses. Called after ingestion since
// cached pages may no longer reflect vault contents.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// copyResponse deep-copies a response so cached entries are never aliased by
// callers.
func copyResponse(src *Response) *Response {
	if src == nil {
		return nil
	}
	dst := &Response{
		Page: types.Page{
			Pagination: src.Page.Pagination,
			Results:    make([]types.Result, len(src.Page.Results)),
		},
		Capability: src.Capability,
		Duration:   src.Duration,
		CacheHit:   src.CacheHit,
		Diagnostic: src.Diagnostic,
	}
	for i, r := range src.Page.Results {
		cp := r
		if r.IsRead != nil {
			v := *r.IsRead
			cp.IsRead = &v
		}
		if len(r.Matches) > 0 {
			cp.Matches = append([]types.Match(nil), r.Matches...)
		}
		dst.Page.Results[i] = cp
	}
	return dst
}
