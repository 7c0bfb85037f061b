/*
Package ledger implements the wallet balance ledger and the
payment-confirmation state machine.

Operations:
  - Recharge: credit a client's balance and append a RECHARGE entry.
  - InitiatePayment: create a time-boxed purchase session and deliver its
    single-use confirmation token out of band.
  - ConfirmPayment: debit the balance, append a PURCHASE entry and consume
    the session, all in one atomic unit.
  - QueryBalance: current balance plus statistics recomputed from the
    transaction log.

Invariants protected here:
  - A balance is never negative.
  - Every balance change is paired with exactly one transaction log entry
    of matching type and amount.
  - A payment session is confirmable at most once. Concurrent confirmation
    attempts resolve to exactly one success; the rest fail with
    ErrSessionAlreadyUsed.
  - A session whose token could not be delivered is burned before the
    failure is reported, so its id never identifies a confirmable session.

Concurrency:

Balance mutations run inside the unit of work, which re-reads the client
row under a row-level update lock and re-validates every precondition
before writing. The session's used flag flips through a conditional update
guarded by the same transaction.

Usage:

	svc := ledger.NewService(uow, stores, cache, sender, ledger.Config{}, nil)

	res, err := svc.Recharge(ctx, ledger.RechargeInput{
	    IdentityInput: ledger.IdentityInput{Document: "1134854312", Phone: "3001234567"},
	    Amount:        money.MustFromString("50000"),
	})

Failures are typed *Error values carrying a stable Code; match them with
errors.Is against the package sentinels.
*/
package ledger
