// Package config provides the string-keyed service configuration passed at
// initialization.
//
// A Config is an immutable map from slash-separated keys to scalar values,
// with typed accessors. The server binary loads one from an HCL file;
// string values support strict ${ENV} expansion so secrets stay out of
// config files.
package config
