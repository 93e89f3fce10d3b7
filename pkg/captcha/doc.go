// Package captcha verifies Google reCAPTCHA v3 proofs against the siteverify
// endpoint.
//
// A proof passes only when the provider reports success, the score reaches
// the configured minimum and the action matches the one the page requested:
//
//	v, err := captcha.New(cfg)
//	if err != nil {
//		return err
//	}
//	if err := v.Verify(ctx, proof, "signin", clientip.GetIP(r)); err != nil {
//		// captcha.ErrMissingToken or captcha.ErrVerificationFailed;
//		// transport problems also match captcha.ErrUnavailable
//	}
package captcha
