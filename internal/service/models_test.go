package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

type stubLister struct {
	models []string
	err    error
}

func (l *stubLister) Models(ctx context.Context) ([]string, error) {
	return l.models, l.err
}

func TestModelCatalogMergesAndSorts(t *testing.T) {
	lister := &stubLister{models: []string{"llama3-8b-8192", "gpt-4o", "", "mixtral-8x7b", "gpt-4o"}}
	c := NewModelCatalog(lister, []string{"gpt-4o", "claude-3-opus-20240229"}, time.Second, discardLogger())

	got, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"claude-3-opus-20240229", "gpt-4o", "llama3-8b-8192", "mixtral-8x7b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List = %v, want %v", got, want)
	}
}

func TestModelCatalogProviderFailureServesFallback(t *testing.T) {
	lister := &stubLister{err: errors.New("upstream down")}
	c := NewModelCatalog(lister, []string{"gpt-4o-mini", "gpt-4o"}, time.Second, discardLogger())

	got, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"gpt-4o", "gpt-4o-mini"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List = %v, want %v", got, want)
	}
}

func TestModelCatalogNilLister(t *testing.T) {
	c := NewModelCatalog(nil, []string{"b", "a"}, 0, discardLogger())
	got, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("List = %v", got)
	}
}

func TestModelCatalogNothingToServe(t *testing.T) {
	lister := &stubLister{err: errors.New("upstream down")}
	c := NewModelCatalog(lister, nil, time.Second, discardLogger())

	_, err := c.List(context.Background())
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("List = %v, want *UpstreamError", err)
	}
}
