package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gigbridge/matchd/internal/adapters/repository"
	"github.com/gigbridge/matchd/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemSnapshotStore(t *testing.T) {
	Convey("Given an empty snapshot store", t, func() {
		ctx := context.Background()
		store := repository.NewMemSnapshotStore()
		base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

		Convey("When reading a request with no snapshot", func() {
			_, err := store.Latest(ctx, "req-1")

			Convey("Then ErrNoSnapshot signals the empty state", func() {
				So(errors.Is(err, repository.ErrNoSnapshot), ShouldBeTrue)
			})
		})

		Convey("When appending snapshots out of order", func() {
			So(store.Append(ctx, model.Snapshot{ID: "s2", RequestID: "req-1", CreatedAt: base.Add(2 * time.Hour)}), ShouldBeNil)
			So(store.Append(ctx, model.Snapshot{ID: "s1", RequestID: "req-1", CreatedAt: base.Add(time.Hour)}), ShouldBeNil)
			So(store.Append(ctx, model.Snapshot{ID: "s3", RequestID: "req-1", CreatedAt: base.Add(3 * time.Hour)}), ShouldBeNil)
			So(store.Append(ctx, model.Snapshot{ID: "other", RequestID: "req-2", CreatedAt: base.Add(9 * time.Hour)}), ShouldBeNil)

			Convey("Then Latest returns the newest by creation time", func() {
				snap, err := store.Latest(ctx, "req-1")
				So(err, ShouldBeNil)
				So(snap.ID, ShouldEqual, "s3")
			})

			Convey("And History is newest first", func() {
				history, err := store.History(ctx, "req-1", 10)
				So(err, ShouldBeNil)
				So(history, ShouldHaveLength, 3)
				So(history[0].ID, ShouldEqual, "s3")
				So(history[1].ID, ShouldEqual, "s2")
				So(history[2].ID, ShouldEqual, "s1")
			})

			Convey("And History honors the limit", func() {
				history, err := store.History(ctx, "req-1", 2)
				So(err, ShouldBeNil)
				So(history, ShouldHaveLength, 2)
				So(history[0].ID, ShouldEqual, "s3")
			})

			Convey("And snapshots of other requests stay isolated", func() {
				snap, err := store.Latest(ctx, "req-2")
				So(err, ShouldBeNil)
				So(snap.ID, ShouldEqual, "other")
			})

			Convey("And Count covers all requests", func() {
				So(store.Count(ctx), ShouldEqual, 4)
			})
		})
	})
}

func TestMemRequestStore(t *testing.T) {
	Convey("Given a request store with mixed statuses", t, func() {
		ctx := context.Background()
		store := repository.NewMemRequestStore()
		base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

		So(store.Put(ctx, model.Request{ID: "a", Status: "open", CreatedAt: base.Add(time.Hour)}), ShouldBeNil)
		So(store.Put(ctx, model.Request{ID: "b", Status: "closed", CreatedAt: base.Add(2 * time.Hour)}), ShouldBeNil)
		So(store.Put(ctx, model.Request{ID: "c", Status: "open", CreatedAt: base.Add(3 * time.Hour)}), ShouldBeNil)

		Convey("When getting a stored request", func() {
			req, err := store.Get(ctx, "b")
			So(err, ShouldBeNil)
			So(req.Status, ShouldEqual, "closed")
		})

		Convey("When getting an unknown request", func() {
			_, err := store.Get(ctx, "ghost")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When listing with a status filter", func() {
			open, err := store.List(ctx, "open")
			So(err, ShouldBeNil)
			So(open, ShouldHaveLength, 2)
			So(open[0].ID, ShouldEqual, "c")
			So(open[1].ID, ShouldEqual, "a")
		})

		Convey("When listing without a filter", func() {
			all, err := store.List(ctx, "")
			So(err, ShouldBeNil)
			So(all, ShouldHaveLength, 3)
		})

		Convey("When overwriting an existing request", func() {
			So(store.Put(ctx, model.Request{ID: "a", Status: "closed", CreatedAt: base}), ShouldBeNil)
			req, err := store.Get(ctx, "a")
			So(err, ShouldBeNil)
			So(req.Status, ShouldEqual, "closed")
		})
	})
}

func TestMemCandidateStore(t *testing.T) {
	Convey("Given a candidate store", t, func() {
		ctx := context.Background()
		store := repository.NewMemCandidateStore()

		So(store.Put(ctx, model.Candidate{ID: "zoe"}), ShouldBeNil)
		So(store.Put(ctx, model.Candidate{ID: "amy"}), ShouldBeNil)

		Convey("When listing", func() {
			cands, err := store.List(ctx)
			So(err, ShouldBeNil)

			Convey("Then candidates come back sorted by id", func() {
				So(cands, ShouldHaveLength, 2)
				So(cands[0].ID, ShouldEqual, "amy")
				So(cands[1].ID, ShouldEqual, "zoe")
			})
		})

		Convey("When getting an unknown candidate", func() {
			_, err := store.Get(ctx, "ghost")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}
