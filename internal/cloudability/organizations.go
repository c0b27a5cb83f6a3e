package cloudability

import (
	"context"
	"net/url"
)

const organizationsResource = "/organizations"

// Organizations fetches every organization visible to the token, or only the
// organization with id oid when oid is not empty
func Organizations(ctx context.Context, c *Client, oid string) (*Report, error) {
	subPath := ""
	if oid != "" {
		subPath = "/" + url.PathEscape(oid)
	}
	return endpoint{client: c, resource: organizationsResource}.report(ctx, subPath, nil)
}
