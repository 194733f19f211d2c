// Package mtrand 实现 32 位 MT19937 生成器。
// 种子方案为数组初始化（init_by_array）：整数种子取绝对值后按小端拆成 32 位字，
// 零种子使用单个 0 字。区间抽样取输出高位并拒绝越界值。
// 输出序列与参考 MT19937 逐位一致，历史标注文件依赖这一点复现。
package mtrand

const (
	n         = 624
	m         = 397
	matrixA   = 0x9908b0df
	upperMask = 0x80000000
	lowerMask = 0x7fffffff
)

// MT 为非并发安全的生成器实例。
type MT struct {
	mt  [n]uint32
	mti int
}

// New 以 int64 种子构造生成器（负数取绝对值）。
func New(seed int64) *MT {
	g := &MT{}
	g.initByArray(seedKey(seed))
	return g
}

// seedKey: |seed| 的小端 32 位字序列；零为 [0]。
func seedKey(seed int64) []uint32 {
	abs := uint64(seed)
	if seed < 0 {
		// MinInt64 取反溢出后仍为 1<<63，按无符号解释即为其绝对值
		abs = uint64(-seed)
	}
	if abs == 0 {
		return []uint32{0}
	}
	var key []uint32
	for abs > 0 {
		key = append(key, uint32(abs))
		abs >>= 32
	}
	return key
}

func (g *MT) initGenrand(s uint32) {
	g.mt[0] = s
	for i := 1; i < n; i++ {
		prev := g.mt[i-1]
		g.mt[i] = 1812433253*(prev^(prev>>30)) + uint32(i)
	}
	g.mti = n
}

func (g *MT) initByArray(key []uint32) {
	g.initGenrand(19650218)
	i, j := 1, 0
	k := n
	if len(key) > k {
		k = len(key)
	}
	for ; k > 0; k-- {
		prev := g.mt[i-1]
		g.mt[i] = (g.mt[i] ^ ((prev ^ (prev >> 30)) * 1664525)) + key[j] + uint32(j)
		i++
		j++
		if i >= n {
			g.mt[0] = g.mt[n-1]
			i = 1
		}
		if j >= len(key) {
			j = 0
		}
	}
	for k = n - 1; k > 0; k-- {
		prev := g.mt[i-1]
		g.mt[i] = (g.mt[i] ^ ((prev ^ (prev >> 30)) * 1566083941)) - uint32(i)
		i++
		if i >= n {
			g.mt[0] = g.mt[n-1]
			i = 1
		}
	}
	g.mt[0] = 0x80000000
}

func (g *MT) generate() {
	for kk := 0; kk < n; kk++ {
		y := (g.mt[kk] & upperMask) | (g.mt[(kk+1)%n] & lowerMask)
		next := g.mt[(kk+m)%n] ^ (y >> 1)
		if y&1 != 0 {
			next ^= matrixA
		}
		g.mt[kk] = next
	}
	g.mti = 0
}

// Uint32 返回下一个 32 位输出。
func (g *MT) Uint32() uint32 {
	if g.mti >= n {
		g.generate()
	}
	y := g.mt[g.mti]
	g.mti++
	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18
	return y
}

// Bits 返回 k 位随机整数（1<=k<=32），取输出的高 k 位。
func (g *MT) Bits(k uint) uint32 {
	if k == 0 {
		return 0
	}
	return g.Uint32() >> (32 - k)
}

// Below 返回 [0,bound) 内的均匀整数：按 bound 的位长截取高位并拒绝采样。
// bound 必须 >0 且 <2^32。
func (g *MT) Below(bound uint32) uint32 {
	k := uint(bitLen(bound))
	r := g.Bits(k)
	for r >= bound {
		r = g.Bits(k)
	}
	return r
}

// Shuffle 原地 Fisher–Yates 洗牌：i 从末位递减到 1，j=Below(i+1)。
func (g *MT) Shuffle(size int, swap func(i, j int)) {
	for i := size - 1; i > 0; i-- {
		j := int(g.Below(uint32(i + 1)))
		swap(i, j)
	}
}

func bitLen(x uint32) int {
	l := 0
	for x != 0 {
		l++
		x >>= 1
	}
	return l
}
