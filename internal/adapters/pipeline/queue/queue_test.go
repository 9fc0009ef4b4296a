package queue

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestQueueEnqueueDequeue(t *testing.T) {
	Convey("Given a queue with capacity 2", t, func() {
		q := New[int](WithName("test"), WithCapacity(2))

		Convey("When items are enqueued within capacity", func() {
			ok1 := q.Enqueue(context.Background(), 1)
			ok2 := q.Enqueue(context.Background(), 2)

			Convey("Then both succeed and arrive in order", func() {
				So(ok1, ShouldBeTrue)
				So(ok2, ShouldBeTrue)
				So(q.Len(), ShouldEqual, 2)
				So(<-q.Dequeue(), ShouldEqual, 1)
				So(<-q.Dequeue(), ShouldEqual, 2)
			})
		})

		Convey("When a third item is enqueued past capacity", func() {
			q.Enqueue(context.Background(), 1)
			q.Enqueue(context.Background(), 2)
			ok := q.Enqueue(context.Background(), 3)

			Convey("Then it is dropped and the buffered items survive", func() {
				So(ok, ShouldBeFalse)
				So(q.Len(), ShouldEqual, 2)
				So(<-q.Dequeue(), ShouldEqual, 1)
				So(<-q.Dequeue(), ShouldEqual, 2)
			})
		})
	})
}

func TestQueueTryDequeue(t *testing.T) {
	Convey("Given a queue", t, func() {
		q := New[string](WithName("try"), WithCapacity(2))

		Convey("When it is empty", func() {
			item, ok := q.TryDequeue()

			Convey("Then TryDequeue returns the zero value and false", func() {
				So(ok, ShouldBeFalse)
				So(item, ShouldEqual, "")
			})
		})

		Convey("When it holds an item", func() {
			q.Enqueue(context.Background(), "frame")
			item, ok := q.TryDequeue()

			Convey("Then TryDequeue pops it without blocking", func() {
				So(ok, ShouldBeTrue)
				So(item, ShouldEqual, "frame")
				So(q.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestQueueClose(t *testing.T) {
	Convey("Given a queue with buffered items", t, func() {
		q := New[int](WithName("close"), WithCapacity(2))
		q.Enqueue(context.Background(), 1)
		q.Enqueue(context.Background(), 2)

		Convey("When the queue is closed", func() {
			err := q.Close()

			Convey("Then the buffered items drain before the channel closes", func() {
				So(err, ShouldBeNil)
				So(q.IsClosed(), ShouldBeTrue)
				So(<-q.Dequeue(), ShouldEqual, 1)
				So(<-q.Dequeue(), ShouldEqual, 2)
				_, open := <-q.Dequeue()
				So(open, ShouldBeFalse)
			})

			Convey("Then enqueues are rejected", func() {
				So(q.Enqueue(context.Background(), 3), ShouldBeFalse)
			})

			Convey("Then a second close reports the closed state", func() {
				So(q.Close(), ShouldEqual, ErrClosed)
			})
		})
	})
}

func TestQueueContextCancellation(t *testing.T) {
	Convey("Given a full queue and a cancelled context", t, func() {
		q := New[int](WithName("ctx"), WithCapacity(1))
		q.Enqueue(context.Background(), 1)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("When an enqueue is attempted", func() {
			done := make(chan bool, 1)
			go func() {
				done <- q.Enqueue(ctx, 2)
			}()

			Convey("Then it returns false without blocking", func() {
				select {
				case ok := <-done:
					So(ok, ShouldBeFalse)
				case <-time.After(time.Second):
					t.Fatal("enqueue blocked on a full queue")
				}
			})
		})
	})
}

func TestQueueDefaults(t *testing.T) {
	Convey("Given a queue built without options", t, func() {
		q := New[int]()

		Convey("Then it uses the default capacity", func() {
			So(q.Cap(), ShouldEqual, defaultCapacity)
			So(q.Len(), ShouldEqual, 0)
			So(q.IsClosed(), ShouldBeFalse)
		})
	})
}
