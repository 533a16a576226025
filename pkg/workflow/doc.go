// Package workflow runs multi-step notification flows.
//
// A Definition is a graph of steps starting at Steps[0]. Each step is one of
// send, delay, condition, escalate or complete, and points to the next step by
// id. A step may carry a Condition that gates the edge to its next step.
//
// Engine.Start creates an instance, keyed by a generated id of the form
// workflow_<unixMillis>_<suffix>, and drives it step by step:
//
//   - the step action runs and one StepHistory entry is appended;
//   - if the instance was cancelled meanwhile the drive stops;
//   - a complete step removes the instance from the store;
//   - a failed step, a missing next step or a false edge condition halts it.
//
// A halted instance stays in the store until Cancel or the periodic sweep
// removes it. Delay steps wait synchronously, so Start returns when the
// instance completes or halts. Use Launch to drive in the background.
//
// Escalate steps raise Data["priority"] one level (low, medium, high,
// urgent) and send on email, SMS and push regardless of routing.
//
// Definitions can be written in YAML:
//
//	id: bill-followup
//	steps:
//	  - id: notify
//	    type: send
//	    next: wait
//	    config: {type: bill_due, title: Rent is due, priority: high}
//	  - id: wait
//	    type: delay
//	    next: check
//	    config: {delay: 24h}
//	  - id: check
//	    type: condition
//	    condition: unpaid
//	    next: escalate
//	  - id: escalate
//	    type: escalate
//	    next: done
//	    config: {title: Rent is overdue}
//	  - id: done
//	    type: complete
//
//	def, err := workflow.ParseDefinition(src, map[string]workflow.Condition{"unpaid": isUnpaid})
//
// Instance state lives in a Store. MemoryStore is the default; RedisStore
// shares state between processes.
package workflow
