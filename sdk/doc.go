// Package sdk provides the embeddable surface of the tracekit agent.
//
// The agent tracks nested traced operations per execution context, computes
// exclusive (self) time for each one, and accumulates per-operation
// statistics that are resolved against the transaction's final name when the
// transaction ends.
//
// # Quick Start
//
//	import tracekitsdk "github.com/tombee/tracekit/sdk"
//
//	func main() {
//		agent, err := tracekitsdk.New()
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		ctx := agent.WithExecution(context.Background())
//		agent.StartTransaction(ctx)
//		agent.PushTransactionStats(ctx)
//
//		frame := agent.PushScope(ctx, "OrderController#create")
//		// ... traced work, possibly pushing nested scopes ...
//		if _, err := agent.PopScope(ctx, frame, "Controller/order/create"); err != nil {
//			// instrumentation pairing bug; disable tracing rather than crash
//		}
//
//		agent.SetTransactionName(ctx, "OrderController#create")
//		agent.PopTransactionStats(ctx, "OrderController#create")
//		agent.EndTransaction(ctx)
//	}
//
// When instrumentation is configured out entirely, use Noop(): every
// operation succeeds trivially and call sites need no conditional logic.
package sdk
