// Package shutdown ties long-running commands to SIGINT and SIGTERM.
//
// Usage:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	ctx, stop := h.Notify(context.Background())
//	defer stop()
//	h.OnShutdown(func(context.Context) error { p.Stop(); return nil })
//	return h.Wait(ctx)
package shutdown
