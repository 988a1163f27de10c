// Package validation provides struct-tag and builder-style validation on
// top of go-playground/validator, producing AppError values with
// per-field details.
//
// Struct validation uses tags like `validate:"required,url,min=1"`:
//
//	if err := validation.Validate(cfg); err != nil { ... }
//
// The builder collects checks that tags cannot express:
//
//	err := validation.New().
//	    Required("jwt_secret", cfg.JwtSecret).
//	    Range("port", cfg.Port, 1, 65535).
//	    Validate()
package validation
