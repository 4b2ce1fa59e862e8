// Package dynamic calls methods and reads or writes members on values whose
// concrete types are only known at run time.
//
// Operations are matched structurally: by exported method name and argument
// count. Arguments are loosely typed protocol values (string, int, float64,
// bool, nil, byte and int slices) and are coerced to the parameter types of
// the matched method before the call. This lets one code path drive every
// reader variant the vendor layer may hand out.
package dynamic
