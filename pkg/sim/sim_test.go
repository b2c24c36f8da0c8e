package sim

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/SmitUplenchwar2687/Pacer/pkg/clock"
	"github.com/SmitUplenchwar2687/Pacer/pkg/sink"
)

func TestReplayThroughPublicAPI(t *testing.T) {
	src := NewSource(strings.NewReader(`TIMESTAMP,LATITUDE,LONGITUDE,FREEWAY_ID,FREEWAY_DIR,LANE,SPEED
2008-11-01 00:00:00,32.749679,-117.155519,163,S,1,71.2
2008-11-01 00:00:10,32.780141,-117.09391,8,W,2,65.4
`))
	mem := sink.NewMemorySink()
	vc := clock.NewVirtualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	d, err := New(src, mem, Options{SpeedFactor: 1, Clock: vc})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	summary, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Records != 2 {
		t.Errorf("records = %d, want 2", summary.Records)
	}
	if got := len(mem.Records()); got != 2 {
		t.Errorf("published %d records, want 2", got)
	}
	if summary.Slept != 10*time.Second {
		t.Errorf("slept = %s, want 10s", summary.Slept)
	}
}
