// Package irdoc loads light expression trees from YAML and CUE documents.
//
// A document names the tree, declares its variables and describes the
// root node:
//
//	name: doubler
//	variables:
//	  x: int
//	root:
//	  lambda:
//	    params: [x]
//	    body:
//	      add: [{var: x}, {var: x}]
//
// Every node is a map with a single key naming its kind. Keys are
// compared in snake_case, so newArray and new_array are the same key.
// Each declared variable becomes one *light.Parameter that every
// {var: name} reference shares. A lambda with a signature map
// ({params: [int], returns: int}) is built as a typed lambda.
//
// Type, constructor, method and property names resolve through a
// *meta.Registry.
package irdoc
