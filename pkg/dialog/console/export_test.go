package console

var Wrap = wrap
