/*
Package storage keeps rendered report artifacts in a single flat directory.

Concurrent runs finishing within the same second produce the same artifact
name; [Dir.Save] never overwrites an existing artifact but instead appends
“_2”, “_3”, and so on to the name.
*/
package storage
