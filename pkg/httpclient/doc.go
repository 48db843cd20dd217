// Package httpclient is the console's request pipeline.
//
// Every call goes through a RequestInterceptor (validation, loading
// notification), the transport, and then either a ResponseNormalizer for
// 2xx responses or an ErrorExtractor for everything else. Response bodies
// are classified once, at the transport boundary, as JSONBody or BinaryBody.
//
// Failures are returned as *RequestError after their field errors have been
// shown, one error notification per field.
package httpclient
