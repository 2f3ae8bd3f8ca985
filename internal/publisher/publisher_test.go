package publisher

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/codex-k8s/werkschrift/internal/marker"
)

// fakeBackend serves a fixed set of comments in pages of pageSize and records calls.
// Created comments are appended as viewer-authored.
type fakeBackend struct {
	comments []Comment
	pageSize int

	fetches  []string
	creates  []string
	updates  []string
	bodies   []string
	nextID   int
	fetchErr error
	mutErr   error
}

func newFakeBackend(pageSize int, comments ...Comment) *fakeBackend {
	return &fakeBackend{comments: comments, pageSize: pageSize}
}

func (f *fakeBackend) FetchCommentsPage(_ context.Context, threadID, cursor string) (Page, error) {
	f.fetches = append(f.fetches, cursor)
	if f.fetchErr != nil {
		return Page{}, f.fetchErr
	}
	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return Page{}, fmt.Errorf("bad cursor %q", cursor)
		}
		start = n
	}
	end := start + f.pageSize
	if end > len(f.comments) {
		end = len(f.comments)
	}
	page := Page{Comments: append([]Comment(nil), f.comments[start:end]...)}
	if end < len(f.comments) {
		page.HasNextPage = true
		page.EndCursor = strconv.Itoa(end)
	}
	return page, nil
}

func (f *fakeBackend) CreateComment(_ context.Context, threadID, body string) (string, error) {
	f.creates = append(f.creates, threadID)
	f.bodies = append(f.bodies, body)
	if f.mutErr != nil {
		return "", f.mutErr
	}
	f.nextID++
	id := fmt.Sprintf("IC_new%d", f.nextID)
	url := "https://github.com/o/r/pull/1#issuecomment-" + id
	f.comments = append(f.comments, Comment{ID: id, ViewerDidAuthor: true, Body: body, URL: url})
	return url, nil
}

func (f *fakeBackend) UpdateComment(_ context.Context, commentID, body string) (string, error) {
	f.updates = append(f.updates, commentID)
	f.bodies = append(f.bodies, body)
	if f.mutErr != nil {
		return "", f.mutErr
	}
	for i := range f.comments {
		if f.comments[i].ID == commentID {
			f.comments[i].Body = body
			return "https://github.com/o/r/pull/1#issuecomment-" + commentID, nil
		}
	}
	return "", fmt.Errorf("comment %s not found", commentID)
}

func fingerprint(t *testing.T, ctx marker.Context) string {
	t.Helper()
	fp, err := marker.New("").Encode(ctx)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return fp
}

func filler(n int, prefix string) []Comment {
	out := make([]Comment, n)
	for i := range out {
		out[i] = Comment{ID: fmt.Sprintf("%s%d", prefix, i), ViewerDidAuthor: i%2 == 0, Body: "unrelated"}
	}
	return out
}

var ciContext = marker.Strings("workflow", "CI", "jobid", "42")

func TestPublishCreatesWhenNoComments(t *testing.T) {
	backend := newFakeBackend(100)
	p := New(nil, backend, marker.New(""))

	url, err := p.Publish(context.Background(), "PR_1", ciContext, "## Summary")
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(backend.creates) != 1 || backend.creates[0] != "PR_1" {
		t.Fatalf("creates = %v, want [PR_1]", backend.creates)
	}
	if len(backend.updates) != 0 {
		t.Fatalf("updates = %v, want none", backend.updates)
	}
	if len(backend.fetches) != 1 || backend.fetches[0] != "" {
		t.Fatalf("fetches = %q, want one first-page fetch", backend.fetches)
	}
	fp := fingerprint(t, ciContext)
	want := "## Summary\n\n" + fp
	if backend.bodies[0] != want {
		t.Fatalf("body = %q, want %q", backend.bodies[0], want)
	}
	if !strings.HasSuffix(backend.bodies[0], "<!-- werkschrift workflow='CI', jobid='42' -->") {
		t.Fatalf("body does not end with fingerprint: %q", backend.bodies[0])
	}
	if url != backend.comments[0].URL {
		t.Fatalf("url = %q, want %q", url, backend.comments[0].URL)
	}
}

func TestPublishIsIdempotent(t *testing.T) {
	backend := newFakeBackend(100)
	p := New(nil, backend, marker.New(""))
	ctx := context.Background()

	first, err := p.PublishResult(ctx, "PR_1", ciContext, "run 1")
	if err != nil {
		t.Fatalf("first PublishResult() error = %v", err)
	}
	second, err := p.PublishResult(ctx, "PR_1", ciContext, "run 2")
	if err != nil {
		t.Fatalf("second PublishResult() error = %v", err)
	}

	if first.Action != ActionCreated || second.Action != ActionUpdated {
		t.Fatalf("actions = %s, %s; want created, updated", first.Action, second.Action)
	}
	if len(backend.comments) != 1 {
		t.Fatalf("comments = %d, want exactly 1", len(backend.comments))
	}
	if !strings.HasPrefix(backend.comments[0].Body, "run 2\n\n") {
		t.Fatalf("body = %q, want updated summary", backend.comments[0].Body)
	}
	if second.CommentID != backend.comments[0].ID {
		t.Fatalf("CommentID = %q, want %q", second.CommentID, backend.comments[0].ID)
	}
}

func TestPublishSkipsMinimizedComment(t *testing.T) {
	fp := fingerprint(t, ciContext)
	backend := newFakeBackend(100, Comment{
		ID:              "IC_hidden",
		ViewerDidAuthor: true,
		IsMinimized:     true,
		Body:            "old\n\n" + fp,
	})
	p := New(nil, backend, marker.New(""))

	res, err := p.PublishResult(context.Background(), "PR_1", ciContext, "new")
	if err != nil {
		t.Fatalf("PublishResult() error = %v", err)
	}
	if res.Action != ActionCreated {
		t.Fatalf("Action = %s, want created", res.Action)
	}
	if len(backend.updates) != 0 {
		t.Fatalf("minimized comment was updated: %v", backend.updates)
	}
	if len(backend.comments) != 2 {
		t.Fatalf("comments = %d, want hidden comment plus new one", len(backend.comments))
	}
}

func TestPublishIgnoresOtherAuthors(t *testing.T) {
	fp := fingerprint(t, ciContext)
	backend := newFakeBackend(100, Comment{
		ID:              "IC_copy",
		ViewerDidAuthor: false,
		Body:            "copied\n\n" + fp,
	})
	p := New(nil, backend, marker.New(""))

	res, err := p.PublishResult(context.Background(), "PR_1", ciContext, "new")
	if err != nil {
		t.Fatalf("PublishResult() error = %v", err)
	}
	if res.Action != ActionCreated || len(backend.updates) != 0 {
		t.Fatalf("other author's comment selected: action=%s updates=%v", res.Action, backend.updates)
	}
}

func TestPublishIgnoresOtherContexts(t *testing.T) {
	other := fingerprint(t, marker.Strings("workflow", "CI", "jobid", "43"))
	backend := newFakeBackend(100, Comment{ID: "IC_43", ViewerDidAuthor: true, Body: "x\n\n" + other})
	p := New(nil, backend, marker.New(""))

	res, err := p.PublishResult(context.Background(), "PR_1", ciContext, "new")
	if err != nil {
		t.Fatalf("PublishResult() error = %v", err)
	}
	if res.Action != ActionCreated {
		t.Fatalf("Action = %s, want created", res.Action)
	}
}

func TestFindPaginatesToLastPage(t *testing.T) {
	fp := fingerprint(t, ciContext)
	comments := filler(200, "IC_")
	comments = append(comments, Comment{ID: "IC_match", ViewerDidAuthor: true, Body: "s\n\n" + fp})
	backend := newFakeBackend(100, comments...)
	p := New(nil, backend, marker.New(""))

	res, err := p.PublishResult(context.Background(), "PR_1", ciContext, "s2")
	if err != nil {
		t.Fatalf("PublishResult() error = %v", err)
	}
	if len(backend.fetches) != 3 || res.Pages != 3 {
		t.Fatalf("fetches = %d (Pages %d), want 3", len(backend.fetches), res.Pages)
	}
	if backend.fetches[1] != "100" || backend.fetches[2] != "200" {
		t.Fatalf("cursors = %q, want continuation cursors", backend.fetches)
	}
	if len(backend.updates) != 1 || backend.updates[0] != "IC_match" {
		t.Fatalf("updates = %v, want [IC_match]", backend.updates)
	}
	if len(backend.creates) != 0 {
		t.Fatalf("creates = %v, want none", backend.creates)
	}
}

func TestFindStopsAtFirstMatch(t *testing.T) {
	fp := fingerprint(t, ciContext)
	comments := filler(300, "IC_")
	comments[4] = Comment{ID: "IC_early", ViewerDidAuthor: true, Body: fp}
	comments[250] = Comment{ID: "IC_late", ViewerDidAuthor: true, Body: fp}
	backend := newFakeBackend(100, comments...)
	p := New(nil, backend, marker.New(""))

	got, pages, err := p.Find(context.Background(), "PR_1", fp)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got == nil || got.ID != "IC_early" {
		t.Fatalf("Find() = %+v, want IC_early", got)
	}
	if pages != 1 || len(backend.fetches) != 1 {
		t.Fatalf("pages = %d fetches = %d, want 1", pages, len(backend.fetches))
	}
}

func TestFindFirstMatchWithinPage(t *testing.T) {
	fp := fingerprint(t, ciContext)
	backend := newFakeBackend(100,
		Comment{ID: "IC_a", ViewerDidAuthor: true, Body: "a " + fp},
		Comment{ID: "IC_b", ViewerDidAuthor: true, Body: "b " + fp},
	)
	p := New(nil, backend, marker.New(""))

	got, _, err := p.Find(context.Background(), "PR_1", fp)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got == nil || got.ID != "IC_a" {
		t.Fatalf("Find() = %+v, want IC_a", got)
	}
}

func TestPublishUpdatesMatchOnSecondPage(t *testing.T) {
	fp := fingerprint(t, ciContext)
	comments := filler(100, "IC_")
	comments = append(comments, Comment{ID: "IC_prior", ViewerDidAuthor: true, Body: "prior\n\n" + fp})
	backend := newFakeBackend(100, comments...)
	p := New(nil, backend, marker.New(""))

	url, err := p.Publish(context.Background(), "PR_1", ciContext, "fresh")
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(backend.fetches) != 2 {
		t.Fatalf("fetches = %d, want 2", len(backend.fetches))
	}
	if len(backend.updates) != 1 || backend.updates[0] != "IC_prior" {
		t.Fatalf("updates = %v, want [IC_prior]", backend.updates)
	}
	if len(backend.creates) != 0 {
		t.Fatalf("createComment called: %v", backend.creates)
	}
	if !strings.HasSuffix(url, "IC_prior") {
		t.Fatalf("url = %q, want update location", url)
	}
}

func TestFindNotFoundAfterAllPages(t *testing.T) {
	backend := newFakeBackend(10, filler(25, "IC_")...)
	p := New(nil, backend, marker.New(""))

	got, pages, err := p.Find(context.Background(), "PR_1", fingerprint(t, ciContext))
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Find() = %+v, want nil", got)
	}
	if pages != 3 {
		t.Fatalf("pages = %d, want 3", pages)
	}
}

func TestPublishEmptyContext(t *testing.T) {
	backend := newFakeBackend(100)
	p := New(nil, backend, marker.New(""))

	_, err := p.Publish(context.Background(), "PR_1", marker.Context{{Name: "run", Value: 1}}, "s")
	if !errors.Is(err, marker.ErrEmptyContext) {
		t.Fatalf("Publish() error = %v, want ErrEmptyContext", err)
	}
	if len(backend.fetches)+len(backend.creates)+len(backend.updates) != 0 {
		t.Fatalf("remote calls made for empty context")
	}
}

func TestPublishPropagatesRemoteErrors(t *testing.T) {
	errBoom := errors.New("boom")
	fp := fingerprint(t, ciContext)

	tests := []struct {
		name    string
		backend *fakeBackend
		wantOp  string
	}{
		{
			name:    "fetch",
			backend: &fakeBackend{pageSize: 100, fetchErr: errBoom},
			wantOp:  OpFetchComments,
		},
		{
			name:    "create",
			backend: &fakeBackend{pageSize: 100, mutErr: errBoom},
			wantOp:  OpCreateComment,
		},
		{
			name: "update",
			backend: &fakeBackend{pageSize: 100, mutErr: errBoom, comments: []Comment{
				{ID: "IC_1", ViewerDidAuthor: true, Body: fp},
			}},
			wantOp: OpUpdateComment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(nil, tt.backend, marker.New(""))
			_, err := p.Publish(context.Background(), "PR_1", ciContext, "s")
			if !errors.Is(err, errBoom) {
				t.Fatalf("Publish() error = %v, want wrapped boom", err)
			}
			var re *RemoteError
			if !errors.As(err, &re) {
				t.Fatalf("Publish() error = %T, want *RemoteError", err)
			}
			if re.Op != tt.wantOp {
				t.Fatalf("Op = %q, want %q", re.Op, tt.wantOp)
			}
			if !IsRemoteError(err) {
				t.Fatalf("IsRemoteError() = false")
			}
			if n := len(tt.backend.creates) + len(tt.backend.updates); n > 1 {
				t.Fatalf("mutations = %d, want at most 1", n)
			}
		})
	}
}

func TestFindRejectsEmptyFingerprint(t *testing.T) {
	backend := newFakeBackend(100)
	p := New(nil, backend, marker.New(""))
	if _, _, err := p.Find(context.Background(), "PR_1", ""); !errors.Is(err, marker.ErrEmptyContext) {
		t.Fatalf("Find() error = %v, want ErrEmptyContext", err)
	}
	if len(backend.fetches) != 0 {
		t.Fatalf("fetches = %d, want 0", len(backend.fetches))
	}
}
