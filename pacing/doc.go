/*
Package pacing implements the policies that pace outbound lookups of a
pipeline run.

A [Policy] gets asked for permission before the lookup with a specific index
(in lookup order) is issued, and suspends the caller until the lookup is
permitted:

  - [Cooldown] is a hard pause: after every R lookups it suspends for a fixed
    cooldown, so never more than R lookups are issued within any cooldown
    window. Bursts within a window are not smoothed.
  - [TokenBucket] smooths lookups using a token bucket instead.
  - [Shared] serializes a policy across multiple concurrent runs, so that the
    budget applies globally instead of per run.

Policies measure and spend time using a [Clock]. Besides the [SystemClock],
there is a [VirtualClock] that fast-forwards time instead of sleeping, for
deterministic tests.
*/
package pacing
