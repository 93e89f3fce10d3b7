// Package clientip resolves the originating client address of an HTTP request.
//
// By default only the TCP peer address is trusted. Deployments behind a
// reverse proxy opt into proxy headers explicitly:
//
//	ips := clientip.New(clientip.WithTrustedHeaders("CF-Connecting-IP", "X-Forwarded-For"))
//	router.Use(ips.Middleware)
//
//	ip := clientip.FromContext(r.Context())
package clientip
