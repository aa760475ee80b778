// Package deps resolves the external binaries used by the generation loop.
package deps
