/*
Package types defines ipreport's information model. Which is rather simple and
mainly revolves around [EnrichmentRecord], the geolocation and ownership
details of a single IPv4 address, and the [AddressStatus] of an address while
it moves through a pipeline run.

# Attributes

Each attribute of an [EnrichmentRecord] is an [Attr]: either a resolved value
or the explicit [NotAvailable] sentinel. A lookup service sending an empty
string sends a value; a lookup service not sending a field at all yields
[NotAvailable], which renders as “N/A”. Both cases stay distinguishable
throughout the pipeline.

# Value Semantics

Records are passed around by value, also through channels, and are never
updated after construction. Progress information travels separately in form
of [AddressUpdate] values, so consumers such as terminal renderers never share
mutable state with the lookup workers.
*/
package types
