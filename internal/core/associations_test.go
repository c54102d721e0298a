package core

import (
	"context"
	"testing"

	"recordcore/pkg/record"
)

type reader struct {
	record.Base
	Handle     string
	Bookmarked []article
}

func (reader) TableName() string { return "readers" }

func (reader) Associations() []record.Association {
	return []record.Association{
		record.HasManyThrough("Bookmarked", "articles", "bookmarks", "reader_id", "article_id"),
	}
}

type bookmark struct {
	record.Base
	ReaderID  string
	ArticleID string
	Reader    *reader
	Article   *article
}

func (bookmark) TableName() string { return "bookmarks" }

func (bookmark) Associations() []record.Association {
	return []record.Association{
		record.BelongsTo("Reader", "readers", "reader_id"),
		record.BelongsTo("Article", "articles", "article_id"),
	}
}

func seedLibrary(t *testing.T, svc *Service) (author, []article, topic) {
	t.Helper()
	ctx := context.Background()
	ada := &author{Name: "Ada", Email: "ada@example.com"}
	if _, err := svc.Create(ctx, ada); err != nil {
		t.Fatalf("create author: %v", err)
	}
	first := &article{Title: "Engines", AuthorID: ada.ID}
	second := &article{Title: "Notes", AuthorID: ada.ID}
	for _, a := range []*article{first, second} {
		if _, err := svc.Create(ctx, a); err != nil {
			t.Fatalf("create article %s: %v", a.Title, err)
		}
	}
	math := &topic{Label: "mathematics"}
	if _, err := svc.Create(ctx, math); err != nil {
		t.Fatalf("create topic: %v", err)
	}
	return *ada, []article{*first, *second}, *math
}

func TestLoadBelongsTo(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	ada, articles, _ := seedLibrary(t, svc)

	loaded := articles[0]
	if err := svc.LoadAssociations(ctx, &loaded); err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Author == nil || loaded.Author.ID != ada.ID || loaded.Author.Name != "Ada" {
		t.Fatalf("unexpected author %#v", loaded.Author)
	}

	orphan := article{Title: "Unattributed"}
	if _, err := svc.Create(ctx, &orphan); err != nil {
		t.Fatalf("create orphan: %v", err)
	}
	if err := svc.LoadAssociations(ctx, &orphan); err != nil {
		t.Fatalf("load orphan: %v", err)
	}
	if orphan.Author != nil {
		t.Fatalf("expected nil author for empty foreign key")
	}
}

func TestLoadHasMany(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	ada, articles, _ := seedLibrary(t, svc)

	loaded := author{Base: ada.Base, Name: ada.Name, Email: ada.Email}
	if err := svc.LoadAssociations(ctx, &loaded); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Articles) != len(articles) {
		t.Fatalf("expected %d articles, got %d", len(articles), len(loaded.Articles))
	}
	titles := map[string]bool{}
	for _, a := range loaded.Articles {
		titles[a.Title] = true
	}
	if !titles["Engines"] || !titles["Notes"] {
		t.Fatalf("unexpected titles %v", titles)
	}
}

func TestAssociateAndDissociate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	_, articles, math := seedLibrary(t, svc)

	first := articles[0]
	if _, err := svc.Associate(ctx, &first, "Topics", &math); err != nil {
		t.Fatalf("associate: %v", err)
	}
	// Linking the same pair twice is a no-op.
	if _, err := svc.Associate(ctx, &first, "Topics", &math); err != nil {
		t.Fatalf("re-associate: %v", err)
	}

	if err := svc.LoadAssociations(ctx, &first); err != nil {
		t.Fatalf("load article: %v", err)
	}
	if len(first.Topics) != 1 || first.Topics[0].Label != "mathematics" {
		t.Fatalf("unexpected topics %#v", first.Topics)
	}

	// The association reads the same from the other side.
	other := math
	if err := svc.LoadAssociations(ctx, &other); err != nil {
		t.Fatalf("load topic: %v", err)
	}
	if len(other.Articles) != 1 || other.Articles[0].Title != "Engines" {
		t.Fatalf("unexpected articles %#v", other.Articles)
	}

	if _, err := svc.Dissociate(ctx, &first, "Topics", &math); err != nil {
		t.Fatalf("dissociate: %v", err)
	}
	if _, err := svc.Dissociate(ctx, &first, "Topics", &math); err != nil {
		t.Fatalf("repeat dissociate: %v", err)
	}
	first.Topics = nil
	if err := svc.LoadAssociations(ctx, &first); err != nil {
		t.Fatalf("reload article: %v", err)
	}
	if len(first.Topics) != 0 {
		t.Fatalf("expected no topics after dissociate, got %#v", first.Topics)
	}
}

func TestLoadHasManyThrough(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	if err := svc.RegisterModels(reader{}, bookmark{}); err != nil {
		t.Fatalf("register through models: %v", err)
	}
	_, articles, _ := seedLibrary(t, svc)

	eve := &reader{Handle: "eve"}
	if _, err := svc.Create(ctx, eve); err != nil {
		t.Fatalf("create reader: %v", err)
	}
	for _, a := range articles {
		if _, err := svc.Create(ctx, &bookmark{ReaderID: eve.ID, ArticleID: a.ID}); err != nil {
			t.Fatalf("create bookmark for %s: %v", a.Title, err)
		}
	}
	// Bookmarking the same article again must not duplicate the result.
	if _, err := svc.Create(ctx, &bookmark{ReaderID: eve.ID, ArticleID: articles[0].ID}); err != nil {
		t.Fatalf("create duplicate bookmark: %v", err)
	}

	if err := svc.LoadAssociations(ctx, eve); err != nil {
		t.Fatalf("load reader: %v", err)
	}
	if len(eve.Bookmarked) != len(articles) {
		t.Fatalf("expected %d bookmarked articles, got %d", len(articles), len(eve.Bookmarked))
	}
	titles := map[string]bool{}
	for _, a := range eve.Bookmarked {
		titles[a.Title] = true
	}
	if !titles["Engines"] || !titles["Notes"] {
		t.Fatalf("unexpected titles %v", titles)
	}

	idle := &reader{Handle: "idle"}
	if _, err := svc.Create(ctx, idle); err != nil {
		t.Fatalf("create idle reader: %v", err)
	}
	if err := svc.LoadAssociations(ctx, idle); err != nil {
		t.Fatalf("load idle reader: %v", err)
	}
	if len(idle.Bookmarked) != 0 {
		t.Fatalf("expected no bookmarked articles, got %#v", idle.Bookmarked)
	}
}

func TestAssociateRejectsWrongKind(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	ada, articles, _ := seedLibrary(t, svc)

	first := articles[0]
	if _, err := svc.Associate(ctx, &first, "Author", &ada); err == nil {
		t.Fatalf("expected associate on belongs-to to fail")
	}
	if _, err := svc.Associate(ctx, &first, "Nope", &ada); err == nil {
		t.Fatalf("expected unknown association to fail")
	}
}
