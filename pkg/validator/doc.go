// Package validator builds declarative validation out of small Rule values.
//
// Each rule pairs a Check closure with the ValidationError to report when the
// check fails. Apply evaluates every rule and aggregates failures into
// ValidationErrors, which satisfies error:
//
//	err := validator.Apply(
//		validator.ValidEmail("email", req.Email).WithMessage("Enter a valid email address"),
//		validator.MinLen("password", req.Password, 6),
//		validator.Required("name", req.Name),
//	)
//	if errs := validator.ExtractValidationErrors(err); errs != nil {
//		// errs.Fields(), errs.Get("email"), ...
//	}
package validator
