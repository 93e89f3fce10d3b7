// Package environment carries the deployment environment through request
// contexts and answers "is this production?" for code that must suppress
// error detail or toggle secure cookies.
package environment
