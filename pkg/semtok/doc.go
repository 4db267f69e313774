/*
Package semtok turns classified token spans into the LSP semantic token wire format.

🎨 Semantic Tokens Overview:
---------------------------
The external tokenizer hands us a flat, ordered list of spans. Each span has a
dialect specific kind ("type-name", "prop-ref", ...) and an absolute position.
The editor wants five integers per span, with positions relative to the
previous span:

	  tokenizer spans              LSP data
	  ---------------              --------
	  {type-name 0:5 len 3}   ->   0,5,3,2,1
	  {prop-name 1:2 len 4}   ->   1,2,4,4,1
	                               |  | |  | +-- modifier bitmask
	                               |  | |  +---- legend type index
	                               |  | +------- length
	                               |  +--------- delta start char
	                               +------------ delta line

🔍 Main Components:
-----------------
1. Legend
  - ordered token type and modifier names, built once per dialect
  - shared by pointer between capability negotiation and encoding

2. KindTable
  - maps a tokenizer kind to a (type index, modifier bits) pair
  - validated against its legend when it is built

3. Encode / Decode
  - Encode trusts the tokenizer ordering (line, then inline index) and never re-sorts
  - Decode rebuilds absolute positions by cumulative sums

4. Diff
  - single edit between two encodings, used for full/delta responses

Example Usage:
-------------

	data, err := semtok.Encode(ctx, spans, table, semtok.UnknownKindWarn)
	if err != nil {
	    return err
	}
*/
package semtok
