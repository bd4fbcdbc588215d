// Package core holds the framework services that are built by the container
// from annotations rather than by a provider: the deployment Environment and
// the MySQL Database.
package core
