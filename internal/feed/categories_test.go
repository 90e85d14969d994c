package feed

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shhrii/Sankshep-App/internal/publishing"
)

func TestCategoryResolver_CaseInsensitive(t *testing.T) {
	source := &fakeSource{categories: defaultCategories()}
	r := NewCategoryResolver(source)
	ctx := context.Background()

	for _, c := range defaultCategories() {
		for _, name := range []string{c.Name, strings.ToLower(c.Name), strings.ToUpper(c.Name), "  " + c.Name + " "} {
			id, err := r.ResolveCategoryID(ctx, name)
			require.NoError(t, err, "resolving %q", name)
			assert.Equal(t, c.ID, id, "resolving %q", name)
		}
	}

	categories, _ := source.calls()
	assert.Equal(t, 1, categories, "the category list is fetched once per resolver")
	assert.True(t, r.Cached())
}

func TestCategoryResolver_NotFound(t *testing.T) {
	source := &fakeSource{categories: []publishing.Category{{ID: 4, Name: "NonDoctor"}}}
	r := NewCategoryResolver(source)

	_, err := r.ResolveCategoryID(context.Background(), "doctor")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	assert.Equal(t, "Doctor category not found.", err.Error())

	var notFound *CategoryNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "doctor", notFound.Name)

	_, err = r.ResolveCategoryID(context.Background(), "nondoctorx")
	assert.Equal(t, "Nondoctorx category not found.", err.Error())
}

func TestCategoryResolver_FailuresAreNotCached(t *testing.T) {
	source := &fakeSource{
		categories:   defaultCategories(),
		categoryErrs: []error{&publishing.StatusError{Resource: "categories", StatusCode: 503}},
	}
	r := NewCategoryResolver(source)
	ctx := context.Background()

	_, err := r.ResolveCategoryID(ctx, "doctor")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Equal(t, "Failed to fetch categories. Status: 503", err.Error())
	assert.False(t, r.Cached())

	id, err := r.ResolveCategoryID(ctx, "doctor")
	require.NoError(t, err)
	assert.Equal(t, 3, id)

	categories, _ := source.calls()
	assert.Equal(t, 2, categories)
}

func TestCategoryResolver_WrapsForeignErrors(t *testing.T) {
	source := &fakeSource{categoryErrs: []error{errors.New("connection reset")}}
	r := NewCategoryResolver(source)

	_, err := r.ResolveCategoryID(context.Background(), "doctor")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestCategoryResolver_EmptyListIsCached(t *testing.T) {
	source := &fakeSource{}
	r := NewCategoryResolver(source)

	_, err := r.ResolveCategoryID(context.Background(), "doctor")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	_, err = r.ResolveCategoryID(context.Background(), "doctor")
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	categories, _ := source.calls()
	assert.Equal(t, 1, categories)
}

func TestCategoryResolver_ConcurrentFirstLoadSharesRequest(t *testing.T) {
	gate := make(chan struct{})
	source := &fakeSource{categories: defaultCategories(), categoryGate: gate}
	r := NewCategoryResolver(source)

	var wg sync.WaitGroup
	ids := make([]int, 10)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := r.ResolveCategoryID(context.Background(), "Case studies")
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}

	time.Sleep(30 * time.Millisecond)
	close(gate)
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, 9, id)
	}
	categories, _ := source.calls()
	assert.Equal(t, 1, categories)
}

func TestCategoryResolver_CallerCancelDoesNotAbortSharedLoad(t *testing.T) {
	gate := make(chan struct{})
	source := &fakeSource{categories: defaultCategories(), categoryGate: gate}
	r := NewCategoryResolver(source)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := r.ResolveCategoryID(ctx, "doctor")
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(gate)
	id, err := r.ResolveCategoryID(context.Background(), "doctor")
	require.NoError(t, err)
	assert.Equal(t, 3, id)
}
