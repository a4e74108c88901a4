package browser

// captureScript reads an element and its ancestor chain in one round trip. Anchors
// report the resolved href property so relative links come back absolute.
func captureScript() string {
	return `(el, maxDepth) => {
		if (!el || !el.isConnected) return null;

		const tag = el.tagName.toLowerCase();
		const attributes = [];
		for (const a of el.attributes) {
			let value = a.value;
			if (tag === 'a' && a.name === 'href' && el.href) value = el.href;
			attributes.push({name: a.name, value: value});
		}

		const classOf = (node) => typeof node.className === 'string'
			? node.className
			: (node.getAttribute('class') || '');

		const ancestry = [];
		let cur = el;
		for (let depth = 0; cur && cur.nodeType === 1 && depth <= maxDepth; depth++) {
			const parent = cur.parentElement;
			let position = 1;
			let same = 1;
			if (parent) {
				const kids = Array.from(parent.children);
				position = kids.indexOf(cur) + 1;
				same = kids.filter(k => k.tagName === cur.tagName).length;
			}
			ancestry.push({
				tag: cur.tagName.toLowerCase(),
				id: cur.id || '',
				cls: classOf(cur),
				position: position,
				same: same,
			});
			cur = parent;
		}

		return {
			tag: tag,
			text: (el.innerText || el.textContent || '').trim(),
			attributes: attributes,
			ancestry: ancestry,
		};
	}`
}

func describeScript() string {
	return `(el) => {
		const text = (el.innerText || el.value || '').trim().replace(/\s+/g, ' ');
		return {
			tag: el.tagName.toLowerCase(),
			text: text.length > 40 ? text.slice(0, 40) + '...' : text,
			id: el.id || '',
			name: el.getAttribute('name') || '',
			placeholder: el.getAttribute('placeholder') || '',
		};
	}`
}

func highlightScript() string {
	return `(el, ms) => {
		const prev = el.style.outline;
		el.style.outline = '3px solid red';
		el.scrollIntoView({behavior: 'instant', block: 'center'});
		setTimeout(() => { el.style.outline = prev; }, ms);
	}`
}

func connectedScript() string {
	return `(el) => el.isConnected`
}

func jsClickScript() string {
	return `(el) => {
		el.scrollIntoView({behavior: 'instant', block: 'center'});
		el.click();
	}`
}
