package mapreduce

// mapFunc is a unary int32 -> int32 transform. Arithmetic wraps silently
// on overflow, matching Go's native int32 semantics.
type mapFunc func(int32) int32

// reduceFunc is a binary fold with an identity element.
type reduceFunc struct {
	fold     func(acc, x int32) int32
	identity int32
}

// mapCatalog is the closed set of named unary map operations.
var mapCatalog = map[string]mapFunc{
	"square": func(x int32) int32 { return x * x },
	"double": func(x int32) int32 { return x * 2 },
	"triple": func(x int32) int32 { return x * 3 },
}

// reduceCatalog is the closed set of named binary reduce operations,
// each with its identity element.
var reduceCatalog = map[string]reduceFunc{
	"sum":     {fold: func(acc, x int32) int32 { return acc + x }, identity: 0},
	"product": {fold: func(acc, x int32) int32 { return acc * x }, identity: 1},
}
