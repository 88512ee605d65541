// Package namespace maps type names between the host namespace and the
// parallel sandbox namespace.
//
// A name belongs to exactly one of the two namespaces, decided by a fixed
// prefix test. Conversion host->sandbox prepends the prefix; sandbox->host
// strips it. Both directions are total functions over all strings and
// idempotent under repeated application.
package namespace

import (
	"fmt"
	"strings"
)

// DefaultPrefix is the namespace prefix used when none is configured.
// Names use internal (slash-separated) form throughout.
const DefaultPrefix = "sandbox/"

// HostName is a type name in the host namespace.
type HostName string

// SandboxName is a type name in the sandbox namespace.
type SandboxName string

// Well-known host types. The resolver derives their sandbox counterparts
// from its configured prefix.
const (
	objectClass = "java/lang/Object"
	enumClass   = "java/lang/Enum"
	stringClass = "java/lang/String"
)

// UnprefixedNameError reports a name that was expected to carry the
// sandbox prefix but did not. Only StrictToHost returns it; ToHost treats
// such names as already belonging to the host namespace.
type UnprefixedNameError struct {
	Name string
}

func (e *UnprefixedNameError) Error() string {
	return fmt.Sprintf("name %q is not in the sandbox namespace", e.Name)
}

// Resolver converts names between the two namespaces. It is the single
// source of truth for namespace membership; no other component implements
// the prefix test. The zero value is not usable; use New.
type Resolver struct {
	prefix string
}

// New returns a Resolver using prefix, or DefaultPrefix if prefix is
// empty.
func New(prefix string) *Resolver {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Resolver{prefix: prefix}
}

// Prefix returns the configured sandbox prefix.
func (r *Resolver) Prefix() string {
	return r.prefix
}

// InSandbox reports whether name carries the sandbox prefix.
func (r *Resolver) InSandbox(name string) bool {
	return strings.HasPrefix(name, r.prefix)
}

// ToSandbox prepends the sandbox prefix unless it is already present.
func (r *Resolver) ToSandbox(name HostName) SandboxName {
	if r.InSandbox(string(name)) {
		return SandboxName(name)
	}
	return SandboxName(r.prefix + string(name))
}

// ToHost strips the sandbox prefix if present. A name without the prefix
// is returned unchanged: it is already a host name. Callers that need to
// distinguish "already host" from "never sandboxed" use StrictToHost.
func (r *Resolver) ToHost(name SandboxName) HostName {
	if r.InSandbox(string(name)) {
		return HostName(strings.TrimPrefix(string(name), r.prefix))
	}
	return HostName(name)
}

// StrictToHost strips the sandbox prefix, failing with an
// UnprefixedNameError if the name does not carry it.
func (r *Resolver) StrictToHost(name SandboxName) (HostName, error) {
	if !r.InSandbox(string(name)) {
		return "", &UnprefixedNameError{Name: string(name)}
	}
	return HostName(strings.TrimPrefix(string(name), r.prefix)), nil
}

// RootObject returns the sandboxed root object type. It is defined
// natively in the sandbox namespace, not generated by preparation.
func (r *Resolver) RootObject() SandboxName {
	return SandboxName(r.prefix + objectClass)
}

// RootEnum returns the sandboxed enum root. A type counts as a sandbox
// enum only if its direct supertype is exactly this name.
func (r *Resolver) RootEnum() SandboxName {
	return SandboxName(r.prefix + enumClass)
}

// SandboxString returns the sandboxed string type, the return type of the
// renamed stringify method.
func (r *Resolver) SandboxString() SandboxName {
	return SandboxName(r.prefix + stringClass)
}
