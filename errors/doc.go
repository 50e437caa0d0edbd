/*
Package errors implements the coded error handling used across the
whole engine.

Every error returned to a caller wraps one of the registered root
errors. Roots carry a unique numeric code, so a client can match on
the class of failure without parsing strings, while the wrapping adds
human readable context and a stack trace for operators.

Use Wrap or Wrapf to add context to an error as it travels up the
call stack, and <root>.Is(err) to test what kind of failure happened.
*/
package errors
