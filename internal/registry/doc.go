// Package registry holds the named tasks that make up the build pipeline.
//
// Modules register tasks by name at startup. A later module may override a
// task it did not define: the overriding action receives the previous action
// as its runSuper argument and decides if and how to call it. This is how
// the preprocess module wraps the vyper compile step without the vyper
// module knowing about it.
//
// Registration happens once during application startup and is not safe for
// concurrent use. Running tasks is.
package registry
