// Package moog provides a nonlinear four-pole Moog ladder low-pass filter
// for subtractive synthesis voices.
//
// The ladder follows the Huovilainen model: tanh-saturated one-pole stages,
// tuning and resonance compensation, and a half-sample feedback estimate for
// stable behavior at high resonance. Resonance is normalized to [0, 1], where
// 1 sits at the self-oscillation edge.
//
// Cutoff is meant to be modulated while running: [Filter.SetCutoffHz] clamps
// instead of failing so it can be called from the audio thread. Everything
// else is validated up front by [New] and the error-returning setters.
//
// Two variants are available:
//   - VariantHuovilainen: exact tanh.
//   - VariantLightweight: same topology with a rational tanh approximation.
//
// [WithSaturatedOutput] passes the output through the stage saturation so a
// voice can rely on it staying within [-1, 1].
//
// Building with the fastmath tag switches the coefficient exponential to
// algo-approx.
package moog
