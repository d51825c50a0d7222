/*
Package report assembles the results of a lookup run into a report and renders
them into a paginated PDF document.

The PDF rendering is deterministic: rendering the same results with the same
timestamp always yields byte-identical documents.
*/
package report
