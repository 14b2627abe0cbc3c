package tags

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/Belphemur/DoubanRecommend/internal/apperrors"
	"github.com/Belphemur/DoubanRecommend/internal/models"
)

func newTestEditor(t *testing.T) *Editor {
	t.Helper()
	return NewEditor(context.Background(), NewStore(newTestBackend(t, 0)))
}

func countFold(list []string, tag string) int {
	n := 0
	for _, existing := range list {
		if foldKey(existing) == foldKey(tag) {
			n++
		}
	}
	return n
}

func TestEditor_Add_AppearsExactlyOnce(t *testing.T) {
	e := newTestEditor(t)
	ctx := context.Background()

	if err := e.Add(ctx, models.CategoryMovie, "  Noir "); err != nil {
		t.Fatalf("Add: %v", err)
	}

	tags := e.Tags(models.CategoryMovie)
	if countFold(tags, "Noir") != 1 {
		t.Fatalf("Expected exactly one Noir, got %v", tags)
	}
	if tags[len(tags)-1] != "Noir" {
		t.Errorf("Expected new tag to be appended, got %v", tags)
	}
	if len(e.Tags(models.CategoryTV)) != len(models.CategoryTV.DefaultTags()) {
		t.Error("Adding to movie must not touch tv")
	}
}

func TestEditor_Add_DuplicateAnyCase(t *testing.T) {
	e := newTestEditor(t)
	ctx := context.Background()

	if err := e.Add(ctx, models.CategoryTV, "Anime"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	before := e.Tags(models.CategoryTV)

	for _, variant := range []string{"anime", "ANIME", " Anime "} {
		err := e.Add(ctx, models.CategoryTV, variant)
		if !errors.Is(err, &apperrors.ErrDuplicateTag{}) {
			t.Fatalf("Expected ErrDuplicateTag for %q, got %v", variant, err)
		}
		if reason := apperrors.RejectionReason(err); reason == "" {
			t.Errorf("Expected a descriptive reason for %q", variant)
		}
	}

	if !reflect.DeepEqual(e.Tags(models.CategoryTV), before) {
		t.Errorf("Duplicate add must leave list unchanged: %v -> %v", before, e.Tags(models.CategoryTV))
	}
}

func TestEditor_Add_Empty(t *testing.T) {
	e := newTestEditor(t)

	err := e.Add(context.Background(), models.CategoryMovie, "   ")
	if !errors.Is(err, &apperrors.ErrEmptyTag{}) {
		t.Fatalf("Expected ErrEmptyTag, got %v", err)
	}
}

func TestEditor_Add_UnknownCategory(t *testing.T) {
	e := newTestEditor(t)

	err := e.Add(context.Background(), models.Category("anime"), "x")
	if !errors.Is(err, &apperrors.ErrUnknownCategory{}) {
		t.Fatalf("Expected ErrUnknownCategory, got %v", err)
	}
}

func TestEditor_Delete_SentinelRejected(t *testing.T) {
	e := newTestEditor(t)
	before := e.Tags(models.CategoryMovie)

	err := e.Delete(context.Background(), models.CategoryMovie, models.SentinelTag)
	if !errors.Is(err, &apperrors.ErrSentinelTag{}) {
		t.Fatalf("Expected ErrSentinelTag, got %v", err)
	}
	if !reflect.DeepEqual(e.Tags(models.CategoryMovie), before) {
		t.Error("Sentinel delete must be a no-op")
	}
}

func TestEditor_Delete_Missing(t *testing.T) {
	e := newTestEditor(t)

	err := e.Delete(context.Background(), models.CategoryMovie, "does-not-exist")
	if !errors.Is(err, &apperrors.ErrTagNotFound{}) {
		t.Fatalf("Expected ErrTagNotFound, got %v", err)
	}
}

func TestEditor_Delete_PublishesEvent(t *testing.T) {
	e := newTestEditor(t)

	var events []Event
	e.Subscribe(func(ev Event) { events = append(events, ev) })

	if err := e.Delete(context.Background(), models.CategoryMovie, "科幻"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if e.Contains(models.CategoryMovie, "科幻") {
		t.Error("Expected tag to be removed")
	}
	if len(events) != 1 {
		t.Fatalf("Expected one event, got %d", len(events))
	}
	ev := events[0]
	if ev.Op != OpDelete || ev.Category != models.CategoryMovie || ev.Tag != "科幻" || !ev.Saved {
		t.Errorf("Unexpected event: %+v", ev)
	}
	for _, tag := range ev.Tags {
		if tag == "科幻" {
			t.Error("Expected the event list to reflect the deletion")
		}
	}
}

func TestEditor_Reset_RestoresDefaults(t *testing.T) {
	e := newTestEditor(t)
	ctx := context.Background()

	_ = e.Add(ctx, models.CategoryTV, "动漫")
	_ = e.Delete(ctx, models.CategoryTV, "英剧")

	var events []Event
	e.Subscribe(func(ev Event) { events = append(events, ev) })

	if err := e.Reset(ctx, models.CategoryTV); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if !reflect.DeepEqual(e.Tags(models.CategoryTV), models.CategoryTV.DefaultTags()) {
		t.Errorf("Expected defaults after reset, got %v", e.Tags(models.CategoryTV))
	}
	if len(events) != 1 || events[0].Op != OpReset || events[0].Category != models.CategoryTV {
		t.Fatalf("Expected one reset event for tv, got %+v", events)
	}
	if !reflect.DeepEqual(events[0].Tags, models.CategoryTV.DefaultTags()) {
		t.Errorf("Expected the event to carry the defaults, got %v", events[0].Tags)
	}
}

func TestEditor_MutationsArePersisted(t *testing.T) {
	backend := newTestBackend(t, 0)
	ctx := context.Background()

	e := NewEditor(ctx, NewStore(backend))
	_ = e.Add(ctx, models.CategoryMovie, "Noir")
	_ = e.Delete(ctx, models.CategoryTV, "综艺")

	reloaded := NewEditor(ctx, NewStore(backend))
	if !reloaded.Contains(models.CategoryMovie, "Noir") {
		t.Error("Expected added tag to survive reload")
	}
	if reloaded.Contains(models.CategoryTV, "综艺") {
		t.Error("Expected deleted tag to stay deleted after reload")
	}
}

func TestEditor_PersistFailureKeepsInMemoryChange(t *testing.T) {
	e := NewEditor(context.Background(), NewStore(newTestBackend(t, 1)))

	var events []Event
	e.Subscribe(func(ev Event) { events = append(events, ev) })

	err := e.Add(context.Background(), models.CategoryMovie, "Noir")
	if !errors.Is(err, &apperrors.ErrPersist{}) {
		t.Fatalf("Expected ErrPersist, got %v", err)
	}
	if !e.Contains(models.CategoryMovie, "Noir") {
		t.Error("In-memory list must keep the change when saving fails")
	}
	if len(events) != 1 || events[0].Saved {
		t.Errorf("Expected one unsaved event, got %+v", events)
	}
}

func TestEditor_ObserversNotifiedOnCompletionOnly(t *testing.T) {
	e := newTestEditor(t)
	ctx := context.Background()

	var ops []Op
	unsubscribe := e.Subscribe(func(ev Event) { ops = append(ops, ev.Op) })

	_ = e.Add(ctx, models.CategoryMovie, "Noir")
	// Both rejected.
	_ = e.Add(ctx, models.CategoryMovie, "noir")
	_ = e.Delete(ctx, models.CategoryMovie, models.SentinelTag)
	_ = e.Delete(ctx, models.CategoryMovie, "Noir")
	_ = e.Reset(ctx, models.CategoryMovie)

	want := []Op{OpAdd, OpDelete, OpReset}
	if !reflect.DeepEqual(ops, want) {
		t.Fatalf("Expected events %v, got %v", want, ops)
	}

	unsubscribe()
	unsubscribe()
	_ = e.Add(ctx, models.CategoryMovie, "Giallo")
	if len(ops) != len(want) {
		t.Errorf("Expected no events after unsubscribe, got %v", ops)
	}
}

func TestEditor_TagsReturnsCopy(t *testing.T) {
	e := newTestEditor(t)

	tags := e.Tags(models.CategoryMovie)
	tags[0] = "mutated"

	if e.Tags(models.CategoryMovie)[0] != models.SentinelTag {
		t.Error("Tags must return a copy")
	}
}
