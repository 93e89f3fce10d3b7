// Package queue is the background task runner used for outbound mail and
// periodic maintenance.
//
// Three components share a storage backend through small repository
// interfaces:
//
//   - Enqueuer persists one-time tasks built from JSON payloads.
//   - Scheduler materializes periodic tasks from a Schedule.
//   - Worker claims due tasks, runs the registered Handler and records the
//     outcome. Failed tasks are retried with a linear backoff until
//     MaxRetries is reached, then they are moved to the dead letter list.
//
// A task's name routes it to its handler. One-time payloads may implement
// Named to pin the name; otherwise the Go type name is used.
//
//	store := queue.NewMemoryStorage()
//	enq, _ := queue.NewEnqueuer(store)
//	_ = enq.Enqueue(ctx, WelcomeEmail{To: "ann@example.com"})
//
//	w, _ := queue.NewWorker(store, queue.WithPullInterval(time.Second))
//	_ = w.RegisterHandler(queue.NewTaskHandler(sendWelcome))
//	go w.Run(ctx)()
package queue
