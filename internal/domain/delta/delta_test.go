package delta_test

import (
	"testing"

	delta "github.com/pablohpsilva/something-something-sub003/internal/domain/delta"
	"github.com/pablohpsilva/something-something-sub003/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func board(ranks map[string]int) []types.Entry {
	entries := make([]types.Entry, 0, len(ranks))
	for id, r := range ranks {
		entries = append(entries, types.Entry{Rank: r, ContentID: id})
	}
	return entries
}

func TestWithDeltas(t *testing.T) {
	Convey("Given a previous snapshot with A at rank 3 and B at rank 1", t, func() {
		previous := &types.Snapshot{
			Rank: types.RankBlob{Entries: board(map[string]int{"A": 3, "B": 1})},
		}

		Convey("When the current board has A:1, B:2, C:3", func() {
			current := []types.Entry{
				{Rank: 1, ContentID: "A"},
				{Rank: 2, ContentID: "B"},
				{Rank: 3, ContentID: "C"},
			}
			out := delta.WithDeltas(current, previous)

			Convey("Then A moved up two places", func() {
				So(out[0].RankDelta, ShouldNotBeNil)
				So(*out[0].RankDelta, ShouldEqual, 2)
			})

			Convey("And B dropped one place", func() {
				So(out[1].RankDelta, ShouldNotBeNil)
				So(*out[1].RankDelta, ShouldEqual, -1)
			})

			Convey("And C is a new entrant with a nil delta, not zero", func() {
				So(out[2].RankDelta, ShouldBeNil)
			})

			Convey("And the input entries are not mutated", func() {
				So(current[0].RankDelta, ShouldBeNil)
			})
		})
	})

	Convey("Given no previous snapshot (day one)", t, func() {
		current := []types.Entry{
			{Rank: 1, ContentID: "A"},
			{Rank: 2, ContentID: "B"},
		}

		Convey("When computing deltas", func() {
			out := delta.WithDeltas(current, nil)

			Convey("Then every delta is nil", func() {
				for _, e := range out {
					So(e.RankDelta, ShouldBeNil)
				}
			})
		})
	})

	Convey("Given an entry holding the same rank as before", t, func() {
		previous := &types.Snapshot{
			Rank: types.RankBlob{Entries: board(map[string]int{"A": 1})},
		}
		out := delta.WithDeltas([]types.Entry{{Rank: 1, ContentID: "A"}}, previous)

		Convey("Then its delta is zero, distinct from a nil newcomer", func() {
			So(out[0].RankDelta, ShouldNotBeNil)
			So(*out[0].RankDelta, ShouldEqual, 0)
		})
	})
}
