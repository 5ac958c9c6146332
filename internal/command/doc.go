// Package command turns untrusted client lines into bounded batches of
// console instructions.
//
// A line such as "#creeper 10 --name Bob" is parsed into a Request, which
// the Registry expands against its Descriptor into an ordered Batch. Parse
// and expansion failures are *errors.Error values from pkg/errors and are
// matched with errors.Is against the templates there.
package command
