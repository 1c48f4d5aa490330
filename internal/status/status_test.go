package status

import "testing"

func TestEmitNilSinkIsNoop(t *testing.T) {
	var sink Sink
	Statusf(sink, "should not panic")
}

func TestStatusfFormatsMessage(t *testing.T) {
	sink := NewSink(1)
	Statusf(sink, "indexed %d tiles", 42)
	ev := <-sink
	if ev.Kind != Status {
		t.Errorf("Kind = %v, want Status", ev.Kind)
	}
	if ev.Message != "indexed 42 tiles" {
		t.Errorf("Message = %q, want %q", ev.Message, "indexed 42 tiles")
	}
}

func TestProgressfSetsPercent(t *testing.T) {
	sink := NewSink(1)
	Progressf(sink, 73)
	ev := <-sink
	if ev.Kind != Progress || ev.Percent != 73 {
		t.Errorf("event = %+v, want Kind=Progress Percent=73", ev)
	}
}

func TestProgressPairfSetsPair(t *testing.T) {
	sink := NewSink(1)
	ProgressPairf(sink, TileCoord{R: 1, C: 2}, TileCoord{R: 1, C: 3})
	ev := <-sink
	if ev.Kind != ProgressPair {
		t.Errorf("Kind = %v, want ProgressPair", ev.Kind)
	}
	if ev.Pair[0] != (TileCoord{R: 1, C: 2}) || ev.Pair[1] != (TileCoord{R: 1, C: 3}) {
		t.Errorf("Pair = %+v, want [(1,2) (1,3)]", ev.Pair)
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		Status:       "status",
		Progress:     "progress",
		ProgressPair: "progress_pair",
		Error:        "error",
		Done:         "done",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", k, got, want)
		}
	}
}
