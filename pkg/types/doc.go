/*
Package types defines the core data model shared by every cutover package:
fleets, members, endpoint kinds, and the closed health vocabularies.

Provider-specific status strings never appear outside the cloud adapter;
they are translated into these enumerations on ingress so the cutover logic
compares typed constants only.
*/
package types
