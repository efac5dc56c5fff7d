/*
Package builder turns source files into preview artifacts.

A Builder declares the MIME types it handles and the preview kinds it can
produce. Build dispatches a request to the matching per-kind method after
checking the capability set and, for paged kinds, the page index. Kinds a
builder does not support fail with ErrUnavailablePreviewType and leave no
artifact behind.

The Registry is built from an explicit candidate list: each candidate that
passes CheckDependencies is registered for the MIME types it declares, and
the first candidate to claim a type keeps it.

Builders:

  - ImageBuilder: JPEG thumbnails and JSON metadata for raster images
  - PDFDocumentBuilder: page count, page renders, page extraction, page
    sizes and text for PDFs
  - OfficeBuilder: converts office documents with LibreOffice and delegates
    to the PDF builder
  - PlainTextBuilder: byte-exact text copies and HTML renderings, plus
    JPEG/PDF through an attached OfficeBuilder
*/
package builder
