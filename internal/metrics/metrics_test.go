package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordPollVote(t *testing.T) {
	before := testutil.ToFloat64(pollVotesTotal.WithLabelValues("accepted"))
	RecordPollVote("accepted")
	if got := testutil.ToFloat64(pollVotesTotal.WithLabelValues("accepted")); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}
}

func TestRecordCascadeDeletion(t *testing.T) {
	before := testutil.ToFloat64(cascadeRowsDeleted.WithLabelValues("likes"))
	RecordCascadeDeletion("likes", 3)
	if got := testutil.ToFloat64(cascadeRowsDeleted.WithLabelValues("likes")); got != before+3 {
		t.Fatalf("expected %v, got %v", before+3, got)
	}
}

func TestRecordCacheLookupAndPromotions(t *testing.T) {
	RecordCacheLookup("blocked", true)
	RecordCacheLookup("blocked", false)
	if got := testutil.ToFloat64(cacheLookups.WithLabelValues("blocked", "hit")); got < 1 {
		t.Fatalf("expected a recorded hit")
	}

	before := testutil.ToFloat64(promotionsInjected)
	RecordPromotionInjected()
	if got := testutil.ToFloat64(promotionsInjected); got != before+1 {
		t.Fatalf("expected promotion counter to increase")
	}

	RecordMaterialize(1, 10*time.Millisecond)
	RecordMaterialize(20, 30*time.Millisecond)
	if n := testutil.CollectAndCount(materializeDuration); n != 2 {
		t.Fatalf("expected two histogram series, got %d", n)
	}
}
